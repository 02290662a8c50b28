package service

import (
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"releaseguard.app/guard/common/retry"
	"releaseguard.app/guard/core/config"
	"releaseguard.app/guard/internal/service/codehost"
	"releaseguard.app/guard/internal/service/issue_tracker"
)

// Integrations bundles the upstream clients a merge check fans out to.
type Integrations struct {
	Issues  issue_tracker.IssueTrackerService
	Changes codehost.PullRequestService
}

// NewIntegrations builds the issue tracker selected by ISSUE_TRACKER_PROVIDER and
// a code host router. GitHub is always routable (anonymously without a token);
// GitLab only when GITLAB_TOKEN is set. One GitLab client is shared by the
// issue tracker and the code host.
func NewIntegrations(cfg config.Config) (*Integrations, error) {
	if err := cfg.ValidateIssueTracker(); err != nil {
		return nil, err
	}

	policy := retry.DefaultPolicy(uint64(cfg.Fetch.MaxRetries))

	var gitlabClient *gitlab.Client
	if cfg.GitLab.Enabled() {
		client, err := codehost.NewGitLabClient(cfg.GitLab.BaseURL, cfg.GitLab.Token)
		if err != nil {
			return nil, fmt.Errorf("creating gitlab client: %w", err)
		}
		gitlabClient = client
	}

	var issues issue_tracker.IssueTrackerService
	switch cfg.IssueTracker.Provider {
	case config.ProviderGitLab:
		issues = issue_tracker.NewGitLabIssueTrackerService(gitlabClient, policy)
	default:
		jiraService, err := issue_tracker.NewJiraIssueTrackerService(issue_tracker.JiraConfig{
			InstanceURL:      cfg.Jira.InstanceURL,
			Email:            cfg.Jira.Email,
			APIToken:         cfg.Jira.APIToken,
			PullRequestField: cfg.Jira.PullRequestField,
		}, policy)
		if err != nil {
			return nil, fmt.Errorf("creating jira client: %w", err)
		}
		issues = jiraService
	}

	githubHost, err := codehost.NewGitHubCodeHost(cfg.GitHub.APIURL, cfg.GitHub.Token, policy)
	if err != nil {
		return nil, fmt.Errorf("creating github client: %w", err)
	}

	var gitlabHost codehost.CodeHost
	if gitlabClient != nil {
		gitlabHost = codehost.NewGitLabCodeHost(gitlabClient, policy)
	}

	return &Integrations{
		Issues:  issues,
		Changes: codehost.NewRouter(githubHost, gitlabHost),
	}, nil
}
