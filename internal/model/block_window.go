package model

import "time"

// BlockWindow is an operator-declared blackout period for one branch.
// StartsAt and EndsAt are instants; both bounds are inclusive.
type BlockWindow struct {
	ID        int64     `json:"id"`
	Branch    string    `json:"branch"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Covers reports whether at falls within [StartsAt, EndsAt].
func (w BlockWindow) Covers(at time.Time) bool {
	return !at.Before(w.StartsAt) && !at.After(w.EndsAt)
}

// ExpiredAt reports whether the window ended strictly before at.
func (w BlockWindow) ExpiredAt(at time.Time) bool {
	return w.EndsAt.Before(at)
}
