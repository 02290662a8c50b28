package gate

import (
	"strings"

	"releaseguard.app/guard/internal/domain"
)

// IsBlocked reports whether the issue has an unresolved blocking dependency:
// an INWARD link of type BLOCKS whose linked status is not DONE.
// Links are evaluated in the order provided and the first match wins.
// A nil issue panics.
func IsBlocked(issue *domain.Issue) bool {
	_, ok := FirstBlocker(issue)
	return ok
}

// FirstBlocker returns the first blocking dependency of the issue, if any.
func FirstBlocker(issue *domain.Issue) (domain.LinkedIssue, bool) {
	if issue == nil {
		panic("gate: FirstBlocker called with nil issue")
	}
	for _, link := range issue.LinkedIssues {
		if isBlockingLink(link) {
			return link, true
		}
	}
	return domain.LinkedIssue{}, false
}

func isBlockingLink(link domain.LinkedIssue) bool {
	return strings.EqualFold(link.Type, domain.LinkTypeBlocks) &&
		link.Direction == domain.LinkDirectionInward &&
		link.Status != domain.IssueStatusDone
}
