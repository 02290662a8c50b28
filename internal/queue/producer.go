package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"releaseguard.app/guard/internal/domain"
)

// DecisionMessage is one merge decision appended to the audit stream.
type DecisionMessage struct {
	Decision domain.Decision
	TraceID  *string
}

type Producer interface {
	Publish(ctx context.Context, msg DecisionMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, maxLen int64, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

func (p *redisProducer) Publish(ctx context.Context, msg DecisionMessage) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: DecisionFields(msg),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish decision: %w", err)
	}

	p.logger.DebugContext(ctx, "published merge decision", "stream", p.stream, "rule", msg.Decision.Rule, "allowed", msg.Decision.Allowed)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// DecisionFields flattens a decision into stream entry fields.
func DecisionFields(msg DecisionMessage) map[string]any {
	d := msg.Decision
	fields := map[string]any{
		"allowed":            strconv.FormatBool(d.Allowed),
		"rule":               string(d.Rule),
		"issue_key":          d.IssueKey,
		"blocking_issue_key": d.BlockingIssueKey,
		"pull_request_url":   d.PullRequestURL,
		"target_branch":      d.TargetBranch,
		"urgency_reason":     string(d.UrgencyReason),
		"evaluated_at":       d.EvaluatedAt.UTC().Format(time.RFC3339Nano),
	}
	if d.WindowID != 0 {
		fields["window_id"] = d.WindowID
	}
	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}
	return fields
}

type noopProducer struct{}

// NewNoopProducer returns a Producer that drops every message. Used when no
// Redis URL is configured.
func NewNoopProducer() Producer {
	return noopProducer{}
}

func (noopProducer) Publish(context.Context, DecisionMessage) error { return nil }

func (noopProducer) Close() error { return nil }
