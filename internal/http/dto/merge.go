package dto

import (
	"time"

	"releaseguard.app/guard/internal/domain"
)

type MergeBlockStatusQuery struct {
	IssueKey    string `form:"issue_key"`
	PullRequest string `form:"pull_request"`
	At          string `form:"at"`
}

type IssueBlockStatusQuery struct {
	Key         string `form:"key"`
	PullRequest string `form:"pull_request"`
	At          string `form:"at"`
}

// DecisionResponse answers a block status check. Blocked is the inverse of
// Allowed and kept for callers that read the gate as "is this blocked".
type DecisionResponse struct {
	Allowed          bool      `json:"allowed"`
	Blocked          bool      `json:"blocked"`
	Rule             string    `json:"rule"`
	IssueKey         string    `json:"issue_key,omitempty"`
	BlockingIssueKey string    `json:"blocking_issue_key,omitempty"`
	PullRequestURL   string    `json:"pull_request_url,omitempty"`
	TargetBranch     string    `json:"target_branch,omitempty"`
	UrgencyReason    string    `json:"urgency_reason"`
	WindowID         *int64    `json:"window_id,omitempty,string"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

func ToDecisionResponse(d domain.Decision) DecisionResponse {
	resp := DecisionResponse{
		Allowed:          d.Allowed,
		Blocked:          !d.Allowed,
		Rule:             string(d.Rule),
		IssueKey:         d.IssueKey,
		BlockingIssueKey: d.BlockingIssueKey,
		PullRequestURL:   d.PullRequestURL,
		TargetBranch:     d.TargetBranch,
		UrgencyReason:    string(d.UrgencyReason),
		EvaluatedAt:      d.EvaluatedAt,
	}
	if d.WindowID != 0 {
		windowID := d.WindowID
		resp.WindowID = &windowID
	}
	return resp
}
