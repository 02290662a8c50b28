package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Request handlers enrich the context once, and every log line emitted while
// resolving and evaluating a merge check carries the same identifiers.
type LogFields struct {
	RequestID      *string // X-Request-ID of the inbound call
	IssueKey       *string // Normalized issue key (urgency marker stripped)
	PullRequestURL *string // Change URL under evaluation
	Branch         *string // Target branch
	WindowID       *int64  // Block window ID
	Component      string  // Component name, e.g. "guard.service.merge"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.RequestID != nil {
		result.RequestID = new.RequestID
	}
	if new.IssueKey != nil {
		result.IssueKey = new.IssueKey
	}
	if new.PullRequestURL != nil {
		result.PullRequestURL = new.PullRequestURL
	}
	if new.Branch != nil {
		result.Branch = new.Branch
	}
	if new.WindowID != nil {
		result.WindowID = new.WindowID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{IssueKey: logger.Ptr(key)})
func Ptr[T any](v T) *T {
	return &v
}
