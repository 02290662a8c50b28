// Package gate decides whether a change may be merged. Every function is pure:
// it reads already-fetched issue, pull request and block window data and never
// performs I/O, so it is safe for concurrent use.
package gate

import (
	"fmt"
	"time"

	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/model"
)

// Input is everything a single evaluation looks at. At least one of Issue and
// PullRequest must be set.
type Input struct {
	Issue       *domain.Issue
	PullRequest *domain.PullRequest
	Windows     []model.BlockWindow
	At          time.Time
}

// Evaluate applies the merge rules in precedence order, first match wins:
//
//  1. urgent issue: allowed
//  2. issue with an unresolved blocking dependency: denied
//  3. urgent pull request: allowed, regardless of any block window
//  4. pull request targeting a branch inside an active block window: denied
//  5. otherwise: allowed
func Evaluate(in Input) (domain.Decision, error) {
	if in.Issue == nil && in.PullRequest == nil {
		return domain.Decision{}, fmt.Errorf("%w: an issue or a pull request is required", domain.ErrInvalidRequest)
	}
	if in.At.IsZero() {
		return domain.Decision{}, fmt.Errorf("%w: evaluation instant is required", domain.ErrInvalidRequest)
	}

	d := domain.Decision{
		UrgencyReason: domain.UrgencyReasonNone,
		EvaluatedAt:   in.At,
	}
	if in.Issue != nil {
		d.IssueKey = in.Issue.Key
	}
	if in.PullRequest != nil {
		d.PullRequestURL = in.PullRequest.URL
		d.TargetBranch = in.PullRequest.TargetBranch
	}

	if in.Issue != nil {
		if in.Issue.Urgent {
			return allow(d, domain.RuleIssueUrgent, domain.UrgencyReasonIssueKey), nil
		}
		if blocker, ok := FirstBlocker(in.Issue); ok {
			d.Rule = domain.RuleIssueBlocked
			d.BlockingIssueKey = blocker.Key
			return d, nil
		}
	}

	if in.PullRequest != nil {
		if reason := PullRequestUrgency(in.PullRequest); reason != domain.UrgencyReasonNone {
			return allow(d, domain.RulePullRequestUrgent, reason), nil
		}
		if w, ok := ActiveWindow(in.PullRequest.TargetBranch, in.At, in.Windows); ok {
			d.Rule = domain.RuleBranchBlackout
			d.WindowID = w.ID
			return d, nil
		}
	}

	return allow(d, domain.RuleClear, domain.UrgencyReasonNone), nil
}

// CheckMergeBlockStatus reports whether the merge is allowed.
func CheckMergeBlockStatus(issue *domain.Issue, pr *domain.PullRequest, windows []model.BlockWindow, at time.Time) (bool, error) {
	d, err := Evaluate(Input{Issue: issue, PullRequest: pr, Windows: windows, At: at})
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

func allow(d domain.Decision, rule domain.Rule, reason domain.UrgencyReason) domain.Decision {
	d.Allowed = true
	d.Rule = rule
	d.UrgencyReason = reason
	return d
}

// EvaluateIssue decides the issue-level check without consulting block windows:
// an urgent issue or an urgent pull request allows, otherwise the issue must not
// be blocked. The issue is required.
func EvaluateIssue(issue *domain.Issue, pr *domain.PullRequest, at time.Time) (domain.Decision, error) {
	if issue == nil {
		return domain.Decision{}, fmt.Errorf("%w: an issue is required", domain.ErrInvalidRequest)
	}
	if at.IsZero() {
		return domain.Decision{}, fmt.Errorf("%w: evaluation instant is required", domain.ErrInvalidRequest)
	}

	d := domain.Decision{
		IssueKey:      issue.Key,
		UrgencyReason: domain.UrgencyReasonNone,
		EvaluatedAt:   at,
	}
	if pr != nil {
		d.PullRequestURL = pr.URL
		d.TargetBranch = pr.TargetBranch
	}

	if issue.Urgent {
		return allow(d, domain.RuleIssueUrgent, domain.UrgencyReasonIssueKey), nil
	}
	if pr != nil {
		if reason := PullRequestUrgency(pr); reason != domain.UrgencyReasonNone {
			return allow(d, domain.RulePullRequestUrgent, reason), nil
		}
	}
	if blocker, ok := FirstBlocker(issue); ok {
		d.Rule = domain.RuleIssueBlocked
		d.BlockingIssueKey = blocker.Key
		return d, nil
	}
	return allow(d, domain.RuleClear, domain.UrgencyReasonNone), nil
}
