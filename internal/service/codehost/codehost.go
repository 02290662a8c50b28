package codehost

import (
	"context"
	"fmt"

	"releaseguard.app/guard/internal/domain"
)

// CodeHost fetches a change from one code host flavour.
type CodeHost interface {
	FetchPullRequest(ctx context.Context, ref ChangeRef) (*domain.PullRequest, error)
}

// PullRequestService fetches a normalized pull request from its URL.
type PullRequestService interface {
	FetchPullRequest(ctx context.Context, changeURL string) (*domain.PullRequest, error)
}

// Router dispatches a change URL to the code host that understands it.
type Router struct {
	hosts map[ChangeKind]CodeHost
}

func NewRouter(github, gitlab CodeHost) *Router {
	hosts := make(map[ChangeKind]CodeHost, 2)
	if github != nil {
		hosts[ChangeKindGitHubPullRequest] = github
	}
	if gitlab != nil {
		hosts[ChangeKindGitLabMergeRequest] = gitlab
	}
	return &Router{hosts: hosts}
}

func (r *Router) FetchPullRequest(ctx context.Context, changeURL string) (*domain.PullRequest, error) {
	ref, err := ParseChangeURL(changeURL)
	if err != nil {
		return nil, err
	}

	host, ok := r.hosts[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no code host configured for %s", domain.ErrInvalidRequest, ref.Kind)
	}

	return host.FetchPullRequest(ctx, ref)
}
