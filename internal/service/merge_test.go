package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/model"
	"releaseguard.app/guard/internal/queue"
	"releaseguard.app/guard/internal/service"
)

const changeURL = "https://github.com/acme/shop/pull/7"

var _ = Describe("MergeService", func() {
	var (
		svc        service.MergeService
		tracker    *mockIssueTracker
		prs        *mockPullRequests
		windows    *mockBlockWindowStore
		producer   *mockProducer
		cfg        service.MergeConfig
		ctx        context.Context
		now        time.Time
		issueLinks []domain.LinkedIssue
		prLabels   []string
	)

	build := func() {
		svc = service.NewMergeServiceWithClock(
			tracker,
			prs,
			service.NewBlockScheduleService(windows, &mockTxRunner{stores: &mockStoreProvider{windows: windows}}),
			producer,
			cfg,
			func() time.Time { return now },
		)
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
		cfg = service.MergeConfig{FetchTimeout: time.Second, RequireLinkedIssue: true}
		issueLinks = nil
		prLabels = nil

		tracker = &mockIssueTracker{
			fetchIssueFn: func(_ context.Context, key string) (*domain.Issue, error) {
				return &domain.Issue{Key: key, Status: domain.IssueStatusInProgress, LinkedIssues: issueLinks}, nil
			},
			searchIssueFn: func(_ context.Context, url string) (*domain.Issue, error) {
				Expect(url).To(Equal(changeURL))
				return &domain.Issue{Key: "PROJ-1", Status: domain.IssueStatusInProgress, LinkedIssues: issueLinks}, nil
			},
		}
		prs = &mockPullRequests{
			fetchFn: func(_ context.Context, url string) (*domain.PullRequest, error) {
				return &domain.PullRequest{URL: url, Number: 7, Title: "Add checkout", Labels: prLabels, TargetBranch: "main"}, nil
			},
		}
		windows = &mockBlockWindowStore{
			listActiveFn: func(_ context.Context, branch string, at time.Time) ([]model.BlockWindow, error) {
				Expect(at).To(Equal(now))
				return []model.BlockWindow{{ID: 42, Branch: branch, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}}, nil
			},
		}
		producer = &mockProducer{}
		build()
	})

	Describe("CheckMergeBlockStatus", func() {
		It("should reject a request without anchors", func() {
			_, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "  "})
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
			Expect(producer.messages()).To(BeEmpty())
		})

		It("should strip the urgency marker before fetching and allow", func() {
			var fetched string
			tracker.fetchIssueFn = func(_ context.Context, key string) (*domain.Issue, error) {
				fetched = key
				return &domain.Issue{Key: key, LinkedIssues: []domain.LinkedIssue{
					{Key: "PROJ-2", Type: "BLOCKS", Direction: domain.LinkDirectionInward, Status: domain.IssueStatusTodo},
				}}, nil
			}

			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "!PROJ-9", PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(Equal("PROJ-9"))
			Expect(d.Allowed).To(BeTrue())
			Expect(d.Rule).To(Equal(domain.RuleIssueUrgent))
			Expect(d.IssueKey).To(Equal("PROJ-9"))
		})

		It("should deny a blocked issue", func() {
			issueLinks = []domain.LinkedIssue{
				{Key: "PROJ-2", Type: "BLOCKS", Direction: domain.LinkDirectionInward, Status: domain.IssueStatusInProgress},
			}
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Allowed).To(BeFalse())
			Expect(d.Rule).To(Equal(domain.RuleIssueBlocked))
		})

		It("should deny a pull request targeting a branch in a blackout window", func() {
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Allowed).To(BeFalse())
			Expect(d.Rule).To(Equal(domain.RuleBranchBlackout))
			Expect(d.WindowID).To(Equal(int64(42)))
			Expect(d.IssueKey).To(Equal("PROJ-1"))
			Expect(d.EvaluatedAt).To(Equal(now))
		})

		It("should allow an urgent pull request during a blackout window", func() {
			prLabels = []string{"urgent"}
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Allowed).To(BeTrue())
			Expect(d.Rule).To(Equal(domain.RulePullRequestUrgent))
		})

		It("should use the requested instant", func() {
			at := now.Add(24 * time.Hour)
			windows.listActiveFn = func(_ context.Context, _ string, got time.Time) ([]model.BlockWindow, error) {
				Expect(got).To(Equal(at))
				return nil, nil
			}
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL, At: at})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Rule).To(Equal(domain.RuleClear))
		})

		It("should fail when no issue is linked to the change", func() {
			tracker.searchIssueFn = func(context.Context, string) (*domain.Issue, error) {
				return nil, domain.ErrNotFound
			}
			_, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).To(MatchError(domain.ErrNotFound))
		})

		It("should evaluate the pull request alone when linked issues are optional", func() {
			cfg.RequireLinkedIssue = false
			build()
			tracker.searchIssueFn = func(context.Context, string) (*domain.Issue, error) {
				return nil, domain.ErrNotFound
			}
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Rule).To(Equal(domain.RuleBranchBlackout))
			Expect(d.IssueKey).To(BeEmpty())
		})

		It("should not swallow a missing explicit issue", func() {
			cfg.RequireLinkedIssue = false
			build()
			tracker.fetchIssueFn = func(context.Context, string) (*domain.Issue, error) {
				return nil, domain.ErrNotFound
			}
			_, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-404", PullRequestURL: changeURL})
			Expect(err).To(MatchError(domain.ErrNotFound))
		})

		It("should reject a malformed change url before any upstream call", func() {
			var calls atomic.Int32
			tracker.searchIssueFn = func(context.Context, string) (*domain.Issue, error) {
				calls.Add(1)
				return nil, domain.ErrNotFound
			}
			prs.fetchFn = func(context.Context, string) (*domain.PullRequest, error) {
				calls.Add(1)
				return nil, domain.ErrNotFound
			}
			_, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: "https://github.com/acme/shop/issues/7' OR key != '"})
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
			Expect(calls.Load()).To(BeZero())
			Expect(producer.messages()).To(BeEmpty())
		})

		It("should search the tracker with the normalized change url", func() {
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: "  " + changeURL + "?tab=files"})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.IssueKey).To(Equal("PROJ-1"))
		})

		It("should surface upstream failures from the code host", func() {
			prs.fetchFn = func(context.Context, string) (*domain.PullRequest, error) {
				return nil, domain.ErrUpstream
			}
			_, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-1", PullRequestURL: changeURL})
			Expect(err).To(MatchError(domain.ErrUpstream))
		})

		It("should fetch the issue and the pull request concurrently", func() {
			var inFlight, peak atomic.Int32
			track := func() func() {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				return func() { inFlight.Add(-1) }
			}
			tracker.fetchIssueFn = func(_ context.Context, key string) (*domain.Issue, error) {
				defer track()()
				return &domain.Issue{Key: key}, nil
			}
			prs.fetchFn = func(_ context.Context, url string) (*domain.PullRequest, error) {
				defer track()()
				return &domain.PullRequest{URL: url, TargetBranch: "release"}, nil
			}
			windows.listActiveFn = func(context.Context, string, time.Time) ([]model.BlockWindow, error) {
				return nil, nil
			}

			_, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-1", PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(peak.Load()).To(Equal(int32(2)))
		})

		It("should publish the decision", func() {
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(producer.messages()).To(HaveLen(1))
			Expect(producer.messages()[0].Decision).To(Equal(d))
		})

		It("should not fail the check when the audit stream is down", func() {
			producer.publishFn = func(context.Context, queue.DecisionMessage) error {
				return errors.New("redis: connection refused")
			}
			d, err := svc.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Rule).To(Equal(domain.RuleBranchBlackout))
		})
	})

	Describe("CheckIssueBlockStatus", func() {
		It("should ignore block windows", func() {
			windows.listActiveFn = func(context.Context, string, time.Time) ([]model.BlockWindow, error) {
				Fail("windows must not be read")
				return nil, nil
			}
			d, err := svc.CheckIssueBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-1", PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Allowed).To(BeTrue())
			Expect(d.Rule).To(Equal(domain.RuleClear))
		})

		It("should let an urgent pull request override a blocked issue", func() {
			issueLinks = []domain.LinkedIssue{
				{Key: "PROJ-2", Type: "BLOCKS", Direction: domain.LinkDirectionInward, Status: domain.IssueStatusTodo},
			}
			prLabels = []string{"urgent"}
			d, err := svc.CheckIssueBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-1", PullRequestURL: changeURL})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Allowed).To(BeTrue())
		})

		It("should deny a blocked issue", func() {
			issueLinks = []domain.LinkedIssue{
				{Key: "PROJ-2", Type: "BLOCKS", Direction: domain.LinkDirectionInward, Status: domain.IssueStatusTodo},
			}
			d, err := svc.CheckIssueBlockStatus(ctx, service.MergeCheckRequest{IssueKey: "PROJ-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Allowed).To(BeFalse())
			Expect(d.BlockingIssueKey).To(Equal("PROJ-2"))
		})

		It("should require an issue even when linked issues are optional", func() {
			cfg.RequireLinkedIssue = false
			build()
			tracker.searchIssueFn = func(context.Context, string) (*domain.Issue, error) {
				return nil, domain.ErrNotFound
			}
			_, err := svc.CheckIssueBlockStatus(ctx, service.MergeCheckRequest{PullRequestURL: changeURL})
			Expect(err).To(MatchError(domain.ErrNotFound))
		})
	})

	Describe("GetIssue", func() {
		It("should honor the urgency marker", func() {
			issue, err := svc.GetIssue(ctx, "!PROJ-3")
			Expect(err).NotTo(HaveOccurred())
			Expect(issue.Key).To(Equal("PROJ-3"))
			Expect(issue.Urgent).To(BeTrue())
		})

		It("should reject an empty key", func() {
			_, err := svc.GetIssue(ctx, "")
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
		})

		It("should reject a bare marker", func() {
			_, err := svc.GetIssue(ctx, "!")
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
		})
	})

	Describe("GetPullRequest", func() {
		It("should pass the url to the code host", func() {
			pr, err := svc.GetPullRequest(ctx, " "+changeURL+" ")
			Expect(err).NotTo(HaveOccurred())
			Expect(pr.URL).To(Equal(changeURL))
		})

		It("should propagate code host errors", func() {
			prs.fetchFn = func(context.Context, string) (*domain.PullRequest, error) {
				return nil, errors.New("boom")
			}
			_, err := svc.GetPullRequest(ctx, changeURL)
			Expect(err).To(MatchError("boom"))
		})
	})
})
