package dto

import (
	"time"

	"releaseguard.app/guard/internal/domain"
)

type PullRequestResponse struct {
	URL          string    `json:"url"`
	Number       int64     `json:"number"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Labels       []string  `json:"labels"`
	SourceBranch string    `json:"source_branch"`
	TargetBranch string    `json:"target_branch"`
	Urgent       bool      `json:"urgent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToPullRequestResponse(pr *domain.PullRequest, urgent bool) PullRequestResponse {
	labels := pr.Labels
	if labels == nil {
		labels = []string{}
	}
	return PullRequestResponse{
		URL:          pr.URL,
		Number:       pr.Number,
		Title:        pr.Title,
		Body:         pr.Body,
		Labels:       labels,
		SourceBranch: pr.SourceBranch,
		TargetBranch: pr.TargetBranch,
		Urgent:       urgent,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
	}
}
