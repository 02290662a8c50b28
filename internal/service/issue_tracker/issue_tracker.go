package issue_tracker

import (
	"context"

	"releaseguard.app/guard/internal/domain"
)

// IssueTrackerService fetches normalized issues from the configured tracker.
// Keys passed in are already stripped of the urgency marker.
type IssueTrackerService interface {
	FetchIssue(ctx context.Context, key string) (*domain.Issue, error)
	// SearchIssueLinkedToChange returns the issue a change URL is attached to,
	// or domain.ErrNotFound when none is.
	SearchIssueLinkedToChange(ctx context.Context, changeURL string) (*domain.Issue, error)
}
