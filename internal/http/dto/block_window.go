package dto

import (
	"time"

	"releaseguard.app/guard/internal/model"
)

type CreateBlockWindowRequest struct {
	Branch    string `json:"branch" binding:"required,max=255"`
	StartsAt  string `json:"starts_at" binding:"required"`
	EndsAt    string `json:"ends_at" binding:"required"`
	Reason    string `json:"reason" binding:"max=1024"`
	CreatedBy string `json:"created_by" binding:"max=255"`
}

type ImportBlockWindowsRequest struct {
	Windows []CreateBlockWindowRequest `json:"windows" binding:"required,min=1,max=500,dive"`
}

type ListBlockWindowsQuery struct {
	Page    int `form:"page" binding:"min=0"`
	PerPage int `form:"per_page" binding:"min=0"`
}

type ActiveBlockWindowsQuery struct {
	Branch string `form:"branch" binding:"required"`
	At     string `form:"at"`
}

type BlockWindowResponse struct {
	ID        int64     `json:"id,string"`
	Branch    string    `json:"branch"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ListBlockWindowsResponse struct {
	Windows []BlockWindowResponse `json:"windows"`
	Page    int                   `json:"page"`
	PerPage int                   `json:"per_page"`
}

// ToBlockWindowResponse renders instants in loc, the configured blackout zone.
func ToBlockWindowResponse(w model.BlockWindow, loc *time.Location) BlockWindowResponse {
	return BlockWindowResponse{
		ID:        w.ID,
		Branch:    w.Branch,
		StartsAt:  w.StartsAt.In(loc),
		EndsAt:    w.EndsAt.In(loc),
		Reason:    w.Reason,
		CreatedBy: w.CreatedBy,
		CreatedAt: w.CreatedAt.In(loc),
	}
}

func ToBlockWindowResponses(windows []model.BlockWindow, loc *time.Location) []BlockWindowResponse {
	resp := make([]BlockWindowResponse, len(windows))
	for i, w := range windows {
		resp[i] = ToBlockWindowResponse(w, loc)
	}
	return resp
}
