package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"releaseguard.app/guard/common/logger"
	"releaseguard.app/guard/internal/domain"
)

type ReaderConfig struct {
	Stream string        // Redis stream name
	Block  time.Duration // How long Follow blocks waiting for new entries
	Count  int64         // Maximum entries per Follow call
}

// DecisionEntry is one audit stream entry read back into a decision.
type DecisionEntry struct {
	ID       string
	Decision domain.Decision
	TraceID  string
	Raw      redis.XMessage
}

// RedisDecisionReader reads the decision audit stream without a consumer group:
// auditing is a read-only tail, nothing is acknowledged.
type RedisDecisionReader struct {
	client *redis.Client
	cfg    ReaderConfig
}

func NewRedisDecisionReader(client *redis.Client, cfg ReaderConfig) *RedisDecisionReader {
	return &RedisDecisionReader{client: client, cfg: cfg}
}

// Recent returns the last count entries, oldest first.
func (r *RedisDecisionReader) Recent(ctx context.Context, count int64) ([]DecisionEntry, error) {
	msgs, err := r.client.XRevRangeN(ctx, r.cfg.Stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("reading stream %s: %w", r.cfg.Stream, err)
	}

	entries := make([]DecisionEntry, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		if entry, ok := r.parse(ctx, msgs[i]); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow blocks for entries after lastID ("$" for only new ones). It returns no
// entries and a nil error when the block timeout elapses.
func (r *RedisDecisionReader) Follow(ctx context.Context, lastID string) ([]DecisionEntry, error) {
	streams, err := r.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{r.cfg.Stream, lastID},
		Count:   r.cfg.Count,
		Block:   r.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []DecisionEntry{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var entries []DecisionEntry
	// XRead supports multiple streams, but we only read one so this outer loop only runs once.
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			if entry, ok := r.parse(ctx, msg); ok {
				entries = append(entries, entry)
			}
		}
	}
	return entries, nil
}

func (r *RedisDecisionReader) parse(ctx context.Context, msg redis.XMessage) (DecisionEntry, bool) {
	entry, err := ParseDecision(msg)
	if err != nil {
		ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "guard.queue.reader"})
		slog.WarnContext(ctx, "skipping malformed decision entry",
			"error", err,
			"raw_message_id", msg.ID,
			"stream", r.cfg.Stream)
		return DecisionEntry{}, false
	}
	return entry, true
}

// ParseDecision is the inverse of DecisionFields.
func ParseDecision(msg redis.XMessage) (DecisionEntry, error) {
	allowedStr, err := parseString(msg.Values, "allowed")
	if err != nil {
		return DecisionEntry{}, err
	}
	allowed, err := strconv.ParseBool(allowedStr)
	if err != nil {
		return DecisionEntry{}, fmt.Errorf("parsing allowed: %w", err)
	}

	rule, err := parseString(msg.Values, "rule")
	if err != nil {
		return DecisionEntry{}, err
	}

	evaluatedAtStr, err := parseString(msg.Values, "evaluated_at")
	if err != nil {
		return DecisionEntry{}, err
	}
	evaluatedAt, err := time.Parse(time.RFC3339Nano, evaluatedAtStr)
	if err != nil {
		return DecisionEntry{}, fmt.Errorf("parsing evaluated_at: %w", err)
	}

	windowID, err := parseOptionalInt64(msg.Values, "window_id")
	if err != nil {
		return DecisionEntry{}, err
	}

	d := domain.Decision{
		Allowed:          allowed,
		Rule:             domain.Rule(rule),
		IssueKey:         parseOptionalString(msg.Values, "issue_key"),
		BlockingIssueKey: parseOptionalString(msg.Values, "blocking_issue_key"),
		PullRequestURL:   parseOptionalString(msg.Values, "pull_request_url"),
		TargetBranch:     parseOptionalString(msg.Values, "target_branch"),
		UrgencyReason:    domain.UrgencyReason(parseOptionalString(msg.Values, "urgency_reason")),
		EvaluatedAt:      evaluatedAt,
	}
	if windowID != nil {
		d.WindowID = *windowID
	}

	return DecisionEntry{
		ID:       msg.ID,
		Decision: d,
		TraceID:  parseOptionalString(msg.Values, "trace_id"),
		Raw:      msg,
	}, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt64(values map[string]any, key string) (*int64, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	str := fmt.Sprint(raw)
	num, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &num, nil
}

func parseOptionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}
