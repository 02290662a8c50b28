package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"releaseguard.app/guard/common/logger"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/gate"
	"releaseguard.app/guard/internal/model"
	"releaseguard.app/guard/internal/queue"
	"releaseguard.app/guard/internal/service/codehost"
	"releaseguard.app/guard/internal/service/issue_tracker"
)

const meterName = "releaseguard"

type MergeCheckRequest struct {
	IssueKey       string
	PullRequestURL string
	// At defaults to the current time.
	At time.Time
}

type MergeConfig struct {
	FetchTimeout time.Duration
	// RequireLinkedIssue fails change-only checks whose change has no linked issue.
	RequireLinkedIssue bool
}

// MergeService resolves request anchors into issues and pull requests and runs
// the merge gate over them.
type MergeService interface {
	CheckMergeBlockStatus(ctx context.Context, req MergeCheckRequest) (domain.Decision, error)
	CheckIssueBlockStatus(ctx context.Context, req MergeCheckRequest) (domain.Decision, error)
	GetIssue(ctx context.Context, rawKey string) (*domain.Issue, error)
	GetPullRequest(ctx context.Context, changeURL string) (*domain.PullRequest, error)
}

type mergeService struct {
	issues    issue_tracker.IssueTrackerService
	changes   codehost.PullRequestService
	schedule  BlockScheduleService
	producer  queue.Producer
	cfg       MergeConfig
	now       func() time.Time
	decisions metric.Int64Counter
}

func NewMergeService(
	issues issue_tracker.IssueTrackerService,
	changes codehost.PullRequestService,
	schedule BlockScheduleService,
	producer queue.Producer,
	cfg MergeConfig,
) MergeService {
	return newMergeService(issues, changes, schedule, producer, cfg, time.Now)
}

// NewMergeServiceWithClock is NewMergeService with a fixed time source.
func NewMergeServiceWithClock(
	issues issue_tracker.IssueTrackerService,
	changes codehost.PullRequestService,
	schedule BlockScheduleService,
	producer queue.Producer,
	cfg MergeConfig,
	now func() time.Time,
) MergeService {
	return newMergeService(issues, changes, schedule, producer, cfg, now)
}

func newMergeService(
	issues issue_tracker.IssueTrackerService,
	changes codehost.PullRequestService,
	schedule BlockScheduleService,
	producer queue.Producer,
	cfg MergeConfig,
	now func() time.Time,
) *mergeService {
	if producer == nil {
		producer = queue.NewNoopProducer()
	}

	counter, err := otel.Meter(meterName).Int64Counter(
		"guard.merge.decisions",
		metric.WithDescription("Merge gate decisions by rule"),
	)
	if err != nil {
		slog.Warn("failed to create merge decision counter", "error", err)
	}

	return &mergeService{
		issues:    issues,
		changes:   changes,
		schedule:  schedule,
		producer:  producer,
		cfg:       cfg,
		now:       now,
		decisions: counter,
	}
}

func (s *mergeService) CheckMergeBlockStatus(ctx context.Context, req MergeCheckRequest) (domain.Decision, error) {
	sc := logger.StartSpan(ctx, "merge.check")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Component: "guard.service.merge"})

	decision, err := s.checkMerge(ctx, req)
	if err != nil {
		sc.RecordError(err)
		return domain.Decision{}, err
	}

	sc.SetAttributes(
		attribute.Bool("merge.allowed", decision.Allowed),
		attribute.String("merge.rule", string(decision.Rule)),
	)
	s.record(ctx, decision, sc.TraceID())
	return decision, nil
}

func (s *mergeService) checkMerge(ctx context.Context, req MergeCheckRequest) (domain.Decision, error) {
	anchors, err := domain.NewAnchors(req.IssueKey, req.PullRequestURL)
	if err != nil {
		return domain.Decision{}, err
	}
	at := s.at(req)

	issue, pr, err := s.resolve(ctx, anchors)
	if err != nil {
		return domain.Decision{}, err
	}

	var windows []model.BlockWindow
	if pr != nil && pr.TargetBranch != "" {
		ctx = logger.WithLogFields(ctx, logger.LogFields{Branch: logger.Ptr(pr.TargetBranch)})
		windows, err = s.schedule.ListActive(ctx, pr.TargetBranch, at)
		if err != nil {
			return domain.Decision{}, err
		}
	}

	return gate.Evaluate(gate.Input{
		Issue:       issue,
		PullRequest: pr,
		Windows:     windows,
		At:          at,
	})
}

func (s *mergeService) CheckIssueBlockStatus(ctx context.Context, req MergeCheckRequest) (domain.Decision, error) {
	sc := logger.StartSpan(ctx, "merge.check_issue")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Component: "guard.service.merge"})

	anchors, err := domain.NewAnchors(req.IssueKey, req.PullRequestURL)
	if err != nil {
		return domain.Decision{}, err
	}

	issue, pr, err := s.resolve(ctx, anchors)
	if err != nil {
		sc.RecordError(err)
		return domain.Decision{}, err
	}
	if issue == nil {
		err := fmt.Errorf("no issue linked to %s: %w", anchors.ChangeURL, domain.ErrNotFound)
		sc.RecordError(err)
		return domain.Decision{}, err
	}

	decision, err := gate.EvaluateIssue(issue, pr, s.at(req))
	if err != nil {
		return domain.Decision{}, err
	}

	s.record(ctx, decision, sc.TraceID())
	return decision, nil
}

func (s *mergeService) GetIssue(ctx context.Context, rawKey string) (*domain.Issue, error) {
	anchors, err := domain.NewAnchors(rawKey, "")
	if err != nil {
		return nil, err
	}
	return s.fetchIssue(ctx, anchors.IssueAnchor())
}

func (s *mergeService) GetPullRequest(ctx context.Context, changeURL string) (*domain.PullRequest, error) {
	anchors, err := domain.NewAnchors("", changeURL)
	if err != nil {
		return nil, err
	}
	return s.fetchPullRequest(ctx, anchors.ChangeURL)
}

// resolve fetches the issue and the pull request named by the anchors concurrently.
// The issue is nil only for a change-only request whose change has no linked
// issue when linked issues are optional.
func (s *mergeService) resolve(ctx context.Context, anchors domain.Anchors) (*domain.Issue, *domain.PullRequest, error) {
	var (
		issue *domain.Issue
		pr    *domain.PullRequest
	)

	if anchors.HasChange() {
		ref, err := codehost.ParseChangeURL(anchors.ChangeURL)
		if err != nil {
			return nil, nil, err
		}
		anchors.ChangeURL = ref.URL
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issue, err = s.fetchIssue(gctx, anchors.IssueAnchor())
		if errors.Is(err, domain.ErrNotFound) && anchors.IssueKey == "" && !s.cfg.RequireLinkedIssue {
			slog.InfoContext(gctx, "no issue linked to change, evaluating pull request alone", "pull_request_url", anchors.ChangeURL)
			issue = nil
			return nil
		}
		return err
	})
	if anchors.HasChange() {
		g.Go(func() error {
			var err error
			pr, err = s.fetchPullRequest(gctx, anchors.ChangeURL)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return issue, pr, nil
}

func (s *mergeService) fetchIssue(ctx context.Context, anchor domain.Anchor) (*domain.Issue, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	switch anchor.Kind {
	case domain.AnchorKindIssueKey:
		urgent, key := gate.IsUrgentKey(anchor.Value)
		if key == "" {
			return nil, fmt.Errorf("%w: issue key is empty", domain.ErrInvalidRequest)
		}
		ctx = logger.WithLogFields(ctx, logger.LogFields{IssueKey: logger.Ptr(key)})

		issue, err := s.issues.FetchIssue(ctx, key)
		if err != nil {
			return nil, err
		}
		issue.Urgent = urgent
		return issue, nil

	case domain.AnchorKindChangeURL:
		ctx = logger.WithLogFields(ctx, logger.LogFields{PullRequestURL: logger.Ptr(anchor.Value)})
		return s.issues.SearchIssueLinkedToChange(ctx, anchor.Value)

	default:
		return nil, fmt.Errorf("%w: unknown anchor kind %q", domain.ErrInvalidRequest, anchor.Kind)
	}
}

func (s *mergeService) fetchPullRequest(ctx context.Context, changeURL string) (*domain.PullRequest, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()
	ctx = logger.WithLogFields(ctx, logger.LogFields{PullRequestURL: logger.Ptr(changeURL)})

	return s.changes.FetchPullRequest(ctx, changeURL)
}

func (s *mergeService) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.FetchTimeout)
}

func (s *mergeService) at(req MergeCheckRequest) time.Time {
	if !req.At.IsZero() {
		return req.At
	}
	return s.now()
}

// record emits the decision as a log line, a metric and an audit stream entry.
// Audit failures never fail the request.
func (s *mergeService) record(ctx context.Context, d domain.Decision, traceID string) {
	slog.InfoContext(ctx, "merge decision",
		"allowed", d.Allowed,
		"rule", d.Rule,
		"issue_key", d.IssueKey,
		"blocking_issue_key", d.BlockingIssueKey,
		"pull_request_url", d.PullRequestURL,
		"target_branch", d.TargetBranch,
		"urgency_reason", d.UrgencyReason,
		"window_id", d.WindowID)

	if s.decisions != nil {
		s.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("rule", string(d.Rule)),
			attribute.Bool("allowed", d.Allowed),
		))
	}

	msg := queue.DecisionMessage{Decision: d}
	if traceID != "" {
		msg.TraceID = &traceID
	}
	if err := s.producer.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to publish merge decision", "error", err, "rule", d.Rule)
	}
}
