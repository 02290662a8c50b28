package domain

import "time"

// Rule names the precedence step of the merge gate that produced a decision.
type Rule string

const (
	RuleIssueUrgent       Rule = "issue_urgent"
	RuleIssueBlocked      Rule = "issue_blocked"
	RulePullRequestUrgent Rule = "pull_request_urgent"
	RuleBranchBlackout    Rule = "branch_blackout"
	RuleClear             Rule = "clear"
)

// UrgencyReason names the marker that flagged a pull request as urgent.
type UrgencyReason string

const (
	UrgencyReasonNone  UrgencyReason = "none"
	UrgencyReasonLabel UrgencyReason = "label"
	UrgencyReasonTitle UrgencyReason = "title"
	UrgencyReasonBody  UrgencyReason = "body"
	// UrgencyReasonIssueKey marks urgency asserted through the "!" issue key prefix.
	UrgencyReasonIssueKey UrgencyReason = "issue_key"
)

// Decision is the audit record of one merge gate evaluation.
type Decision struct {
	Allowed          bool          `json:"allowed"`
	Rule             Rule          `json:"rule"`
	IssueKey         string        `json:"issue_key,omitempty"`
	BlockingIssueKey string        `json:"blocking_issue_key,omitempty"`
	PullRequestURL   string        `json:"pull_request_url,omitempty"`
	TargetBranch     string        `json:"target_branch,omitempty"`
	UrgencyReason    UrgencyReason `json:"urgency_reason"`
	WindowID         int64         `json:"window_id,omitempty"`
	EvaluatedAt      time.Time     `json:"evaluated_at"`
}
