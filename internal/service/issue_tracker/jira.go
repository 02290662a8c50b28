package issue_tracker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jira "github.com/andygrunwald/go-jira"

	"releaseguard.app/guard/common/retry"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/service/upstream"
)

const (
	jiraCategoryNew           = "new"
	jiraCategoryIndeterminate = "indeterminate"
	jiraCategoryDone          = "done"
)

type JiraConfig struct {
	InstanceURL string
	Email       string
	APIToken    string
	// PullRequestField is the field searched with JQL for a change URL.
	PullRequestField string
}

type jiraIssueTrackerService struct {
	client *jira.Client
	field  string
	policy retry.Policy
}

func NewJiraIssueTrackerService(cfg JiraConfig, policy retry.Policy) (IssueTrackerService, error) {
	transport := jira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}
	client, err := jira.NewClient(transport.Client(), cfg.InstanceURL)
	if err != nil {
		return nil, fmt.Errorf("creating jira client: %w", err)
	}
	return &jiraIssueTrackerService{
		client: client,
		field:  cfg.PullRequestField,
		policy: policy,
	}, nil
}

func (s *jiraIssueTrackerService) FetchIssue(ctx context.Context, key string) (*domain.Issue, error) {
	issue, err := upstream.Call(ctx, s.policy, "fetching issue from jira", func(ctx context.Context) (*jira.Issue, *http.Response, error) {
		issue, resp, err := s.client.Issue.GetWithContext(ctx, key, nil)
		return issue, jiraHTTPResponse(resp), err
	})
	if err != nil {
		return nil, err
	}

	return mapJiraIssue(issue), nil
}

func (s *jiraIssueTrackerService) SearchIssueLinkedToChange(ctx context.Context, changeURL string) (*domain.Issue, error) {
	jql := fmt.Sprintf("'%s' = '%s'", escapeJQL(s.field), escapeJQL(changeURL))

	issues, err := upstream.Call(ctx, s.policy, "searching jira issues", func(ctx context.Context) ([]jira.Issue, *http.Response, error) {
		issues, resp, err := s.client.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{MaxResults: 1})
		return issues, jiraHTTPResponse(resp), err
	})
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("no jira issue linked to %s: %w", changeURL, domain.ErrNotFound)
	}

	// search results carry a trimmed field set, so reload the issue with its links
	return s.FetchIssue(ctx, issues[0].Key)
}

func jiraHTTPResponse(resp *jira.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}

var jqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`)

// escapeJQL quotes s for use inside a single-quoted JQL string.
func escapeJQL(s string) string {
	return jqlEscaper.Replace(s)
}

func mapJiraIssue(issue *jira.Issue) *domain.Issue {
	out := &domain.Issue{
		Key:          issue.Key,
		Status:       domain.IssueStatusTodo,
		LinkedIssues: []domain.LinkedIssue{},
	}
	if issue.Fields == nil {
		return out
	}

	out.Summary = issue.Fields.Summary
	out.Status = jiraStatus(issue.Fields.Status)

	for _, l := range issue.Fields.IssueLinks {
		if l == nil {
			continue
		}
		linked := domain.LinkedIssue{
			Type:      domain.NormalizeLinkType(l.Type.Name),
			Direction: domain.LinkDirectionOutward,
		}
		other := l.OutwardIssue
		if l.InwardIssue != nil {
			other = l.InwardIssue
			linked.Direction = domain.LinkDirectionInward
		}
		if other == nil {
			continue
		}
		linked.Key = other.Key
		linked.Status = domain.IssueStatusTodo
		if other.Fields != nil {
			linked.Status = jiraStatus(other.Fields.Status)
		}
		out.LinkedIssues = append(out.LinkedIssues, linked)
	}

	return out
}

// jiraStatus normalizes by status category key, falling back to the category name.
func jiraStatus(status *jira.Status) domain.IssueStatus {
	if status == nil {
		return domain.IssueStatusTodo
	}
	switch status.StatusCategory.Key {
	case jiraCategoryNew:
		return domain.IssueStatusTodo
	case jiraCategoryIndeterminate:
		return domain.IssueStatusInProgress
	case jiraCategoryDone:
		return domain.IssueStatusDone
	}

	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(status.StatusCategory.Name), " ", "_"))
	switch domain.IssueStatus(name) {
	case domain.IssueStatusInProgress:
		return domain.IssueStatusInProgress
	case domain.IssueStatusDone:
		return domain.IssueStatusDone
	default:
		return domain.IssueStatusTodo
	}
}
