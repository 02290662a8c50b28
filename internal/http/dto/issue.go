package dto

import "releaseguard.app/guard/internal/domain"

type LinkedIssueResponse struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
	Status    string `json:"status"`
}

type IssueResponse struct {
	Key          string                `json:"key"`
	Summary      string                `json:"summary"`
	Status       string                `json:"status"`
	Urgent       bool                  `json:"urgent"`
	LinkedIssues []LinkedIssueResponse `json:"linked_issues"`
}

func ToIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		Key:          issue.Key,
		Summary:      issue.Summary,
		Status:       string(issue.Status),
		Urgent:       issue.Urgent,
		LinkedIssues: make([]LinkedIssueResponse, len(issue.LinkedIssues)),
	}
	for i, l := range issue.LinkedIssues {
		resp.LinkedIssues[i] = LinkedIssueResponse{
			Key:       l.Key,
			Type:      l.Type,
			Direction: string(l.Direction),
			Status:    string(l.Status),
		}
	}
	return resp
}
