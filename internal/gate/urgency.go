package gate

import (
	"slices"
	"strings"

	"releaseguard.app/guard/internal/domain"
)

const (
	urgentMarker    = "!"
	urgentLabel     = "urgent"
	urgentBodyToken = "!urgent"
)

// IsUrgentKey detects the urgency marker on a caller-supplied issue key.
// Exactly one leading "!" is stripped from the returned key.
func IsUrgentKey(rawKey string) (bool, string) {
	if key, ok := strings.CutPrefix(rawKey, urgentMarker); ok {
		return true, key
	}
	return false, rawKey
}

// IsUrgentPullRequest reports whether any urgency marker is present on the pull request.
func IsUrgentPullRequest(pr *domain.PullRequest) bool {
	return PullRequestUrgency(pr) != domain.UrgencyReasonNone
}

// PullRequestUrgency returns the first urgency marker found, checking the label set,
// then the title prefix, then the body. A nil pull request panics.
func PullRequestUrgency(pr *domain.PullRequest) domain.UrgencyReason {
	if pr == nil {
		panic("gate: PullRequestUrgency called with nil pull request")
	}
	if slices.Contains(pr.Labels, urgentLabel) {
		return domain.UrgencyReasonLabel
	}
	// empty titles are valid and never urgent
	if pr.Title != "" && strings.HasPrefix(pr.Title, urgentMarker) {
		return domain.UrgencyReasonTitle
	}
	if strings.Contains(strings.ToLower(pr.Body), urgentBodyToken) {
		return domain.UrgencyReasonBody
	}
	return domain.UrgencyReasonNone
}
