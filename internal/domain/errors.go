package domain

import "errors"

var (
	// ErrInvalidRequest marks client input errors: missing anchors, malformed change
	// URLs, malformed block windows. Never retried.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound marks a missing issue, pull request, linked issue or block window.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks an issue tracker or code host failure after retries.
	ErrUpstream = errors.New("upstream failure")
)
