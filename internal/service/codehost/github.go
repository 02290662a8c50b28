package codehost

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"

	"releaseguard.app/guard/common/retry"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/service/upstream"
)

type gitHubCodeHost struct {
	client *github.Client
	policy retry.Policy
}

// NewGitHubCodeHost builds a GitHub client. apiURL is empty for github.com.
func NewGitHubCodeHost(apiURL, token string, policy retry.Policy) (CodeHost, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("configuring github enterprise url: %w", err)
		}
	}
	return NewGitHubCodeHostWithClient(client, policy), nil
}

func NewGitHubCodeHostWithClient(client *github.Client, policy retry.Policy) CodeHost {
	return &gitHubCodeHost{client: client, policy: policy}
}

func (h *gitHubCodeHost) FetchPullRequest(ctx context.Context, ref ChangeRef) (*domain.PullRequest, error) {
	pr, err := upstream.Call(ctx, h.policy, "fetching pull request from github", func(ctx context.Context) (*github.PullRequest, *http.Response, error) {
		pr, resp, err := h.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, int(ref.Number))
		return pr, httpResponse(resp), err
	})
	if err != nil {
		return nil, err
	}

	return mapGitHubPullRequest(ref, pr), nil
}

func httpResponse(resp *github.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}

func mapGitHubPullRequest(ref ChangeRef, pr *github.PullRequest) *domain.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		if l != nil {
			labels = append(labels, l.GetName())
		}
	}

	url := pr.GetHTMLURL()
	if url == "" {
		url = ref.URL
	}

	return &domain.PullRequest{
		URL:          strings.TrimSuffix(url, "/"),
		Number:       int64(pr.GetNumber()),
		Title:        pr.GetTitle(),
		Body:         pr.GetBody(),
		Labels:       labels,
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
	}
}
