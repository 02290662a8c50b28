package codehost

import (
	"context"
	"net/http"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"releaseguard.app/guard/common/retry"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/service/upstream"
)

type gitLabCodeHost struct {
	client *gitlab.Client
	policy retry.Policy
}

// NewGitLabClient builds a client for gitlab.com or a self-hosted instance.
func NewGitLabClient(baseURL, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
}

func NewGitLabCodeHost(client *gitlab.Client, policy retry.Policy) CodeHost {
	return &gitLabCodeHost{client: client, policy: policy}
}

func (h *gitLabCodeHost) FetchPullRequest(ctx context.Context, ref ChangeRef) (*domain.PullRequest, error) {
	mr, err := upstream.Call(ctx, h.policy, "fetching merge request from gitlab", func(ctx context.Context) (*gitlab.MergeRequest, *http.Response, error) {
		mr, resp, err := h.client.MergeRequests.GetMergeRequest(ref.ProjectPath, ref.Number, nil, gitlab.WithContext(ctx))
		return mr, GitLabHTTPResponse(resp), err
	})
	if err != nil {
		return nil, err
	}

	return mapGitLabMergeRequest(ref, mr), nil
}

// GitLabHTTPResponse unwraps a client-go response for error classification.
func GitLabHTTPResponse(resp *gitlab.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}

func mapGitLabMergeRequest(ref ChangeRef, mr *gitlab.MergeRequest) *domain.PullRequest {
	pr := &domain.PullRequest{
		URL:          ref.URL,
		Number:       mr.IID,
		Title:        mr.Title,
		Body:         mr.Description,
		Labels:       append([]string(nil), mr.Labels...),
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
	}
	if mr.WebURL != "" {
		pr.URL = mr.WebURL
	}
	if mr.CreatedAt != nil {
		pr.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		pr.UpdatedAt = *mr.UpdatedAt
	}
	return pr
}
