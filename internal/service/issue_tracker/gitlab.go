package issue_tracker

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/sync/errgroup"

	"releaseguard.app/guard/common/retry"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/service/codehost"
	"releaseguard.app/guard/internal/service/upstream"
)

const (
	gitLabStateClosed       = "closed"
	gitLabLinkBlocks        = "blocks"
	gitLabLinkIsBlockedBy   = "is_blocked_by"
	gitLabIssueKeySeparator = "#"
)

type gitLabIssueTrackerService struct {
	client *gitlab.Client
	policy retry.Policy
}

// NewGitLabIssueTrackerService reads issues keyed as "group/project#iid".
func NewGitLabIssueTrackerService(client *gitlab.Client, policy retry.Policy) IssueTrackerService {
	return &gitLabIssueTrackerService{
		client: client,
		policy: policy,
	}
}

func (s *gitLabIssueTrackerService) FetchIssue(ctx context.Context, key string) (*domain.Issue, error) {
	project, iid, err := ParseGitLabIssueKey(key)
	if err != nil {
		return nil, err
	}

	var (
		issue     *gitlab.Issue
		relations []*gitlab.IssueRelation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issue, err = upstream.Call(gctx, s.policy, "fetching issue from gitlab", func(ctx context.Context) (*gitlab.Issue, *http.Response, error) {
			issue, resp, err := s.client.Issues.GetIssue(project, iid, nil, gitlab.WithContext(ctx))
			return issue, codehost.GitLabHTTPResponse(resp), err
		})
		return err
	})
	g.Go(func() error {
		var err error
		relations, err = upstream.Call(gctx, s.policy, "fetching issue links from gitlab", func(ctx context.Context) ([]*gitlab.IssueRelation, *http.Response, error) {
			relations, resp, err := s.client.IssueLinks.ListIssueRelations(project, iid, gitlab.WithContext(ctx))
			return relations, codehost.GitLabHTTPResponse(resp), err
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mapGitLabIssue(key, issue, relations), nil
}

func (s *gitLabIssueTrackerService) SearchIssueLinkedToChange(ctx context.Context, changeURL string) (*domain.Issue, error) {
	ref, err := codehost.ParseChangeURL(changeURL)
	if err != nil {
		return nil, err
	}
	if ref.Kind != codehost.ChangeKindGitLabMergeRequest {
		return nil, fmt.Errorf("%w: gitlab can only search issues for merge requests, got %s", domain.ErrInvalidRequest, ref.Kind)
	}

	issues, err := upstream.Call(ctx, s.policy, "fetching issues closed by merge request", func(ctx context.Context) ([]*gitlab.Issue, *http.Response, error) {
		issues, resp, err := s.client.MergeRequests.GetIssuesClosedOnMerge(ref.ProjectPath, ref.Number, nil, gitlab.WithContext(ctx))
		return issues, codehost.GitLabHTTPResponse(resp), err
	})
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 || issues[0] == nil {
		return nil, fmt.Errorf("no gitlab issue linked to %s: %w", changeURL, domain.ErrNotFound)
	}

	first := issues[0]
	key := ref.ProjectPath + gitLabIssueKeySeparator + strconv.FormatInt(first.IID, 10)
	if first.References != nil && first.References.Full != "" {
		key = first.References.Full
	}
	return s.FetchIssue(ctx, key)
}

// ParseGitLabIssueKey splits "group/sub/project#42" into project path and iid.
func ParseGitLabIssueKey(key string) (string, int64, error) {
	project, rawIID, ok := strings.Cut(key, gitLabIssueKeySeparator)
	if !ok || project == "" || strings.Contains(rawIID, gitLabIssueKeySeparator) {
		return "", 0, fmt.Errorf("%w: gitlab issue key must look like group/project#iid, got %q", domain.ErrInvalidRequest, key)
	}
	iid, err := strconv.ParseInt(rawIID, 10, 64)
	if err != nil || iid <= 0 {
		return "", 0, fmt.Errorf("%w: invalid gitlab issue iid in %q", domain.ErrInvalidRequest, key)
	}
	return project, iid, nil
}

func mapGitLabIssue(key string, issue *gitlab.Issue, relations []*gitlab.IssueRelation) *domain.Issue {
	out := &domain.Issue{
		Key:          key,
		Summary:      issue.Title,
		Status:       gitLabStatus(issue.State),
		LinkedIssues: make([]domain.LinkedIssue, 0, len(relations)),
	}

	project, _, _ := strings.Cut(key, gitLabIssueKeySeparator)
	for _, r := range relations {
		if r == nil {
			continue
		}
		linked := domain.LinkedIssue{
			Key:    project + gitLabIssueKeySeparator + strconv.FormatInt(r.IID, 10),
			Status: gitLabStatus(r.State),
		}
		if r.References != nil && r.References.Full != "" {
			linked.Key = r.References.Full
		}
		switch r.LinkType {
		case gitLabLinkIsBlockedBy:
			linked.Type = domain.LinkTypeBlocks
			linked.Direction = domain.LinkDirectionInward
		case gitLabLinkBlocks:
			linked.Type = domain.LinkTypeBlocks
			linked.Direction = domain.LinkDirectionOutward
		default:
			linked.Type = domain.NormalizeLinkType(r.LinkType)
			linked.Direction = domain.LinkDirectionOutward
		}
		out.LinkedIssues = append(out.LinkedIssues, linked)
	}

	return out
}

func gitLabStatus(state string) domain.IssueStatus {
	if state == gitLabStateClosed {
		return domain.IssueStatusDone
	}
	return domain.IssueStatusTodo
}
