package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/model"
	"releaseguard.app/guard/internal/service"
	"releaseguard.app/guard/internal/store"
)

var _ = Describe("BlockScheduleService", func() {
	var (
		svc       service.BlockScheduleService
		mockStore *mockBlockWindowStore
		txRunner  *mockTxRunner
		ctx       context.Context
		start     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockStore = &mockBlockWindowStore{}
		txRunner = &mockTxRunner{stores: &mockStoreProvider{windows: mockStore}}
		svc = service.NewBlockScheduleService(mockStore, txRunner)
		start = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

		Expect(id.Init(1)).To(Succeed())
	})

	Describe("Create", func() {
		It("should persist a trimmed window with a generated id", func() {
			var captured *model.BlockWindow
			mockStore.createFn = func(_ context.Context, w *model.BlockWindow) error {
				captured = w
				return nil
			}

			w, err := svc.Create(ctx, service.CreateBlockWindowParams{
				Branch:    "  main ",
				StartsAt:  start,
				EndsAt:    start.Add(2 * time.Hour),
				Reason:    " release freeze ",
				CreatedBy: "ops",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(w.ID).NotTo(BeZero())
			Expect(w.Branch).To(Equal("main"))
			Expect(w.Reason).To(Equal("release freeze"))
			Expect(captured).To(BeIdenticalTo(w))
		})

		It("should accept a window of zero length", func() {
			_, err := svc.Create(ctx, service.CreateBlockWindowParams{Branch: "main", StartsAt: start, EndsAt: start})
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("invalid windows",
			func(params service.CreateBlockWindowParams) {
				mockStore.createFn = func(context.Context, *model.BlockWindow) error {
					Fail("store must not be called")
					return nil
				}
				_, err := svc.Create(ctx, params)
				Expect(err).To(MatchError(domain.ErrInvalidRequest))
			},
			Entry("missing branch", service.CreateBlockWindowParams{Branch: " ", StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour)}),
			Entry("missing start", service.CreateBlockWindowParams{Branch: "main", EndsAt: time.Now()}),
			Entry("end before start", service.CreateBlockWindowParams{Branch: "main", StartsAt: time.Now(), EndsAt: time.Now().Add(-time.Hour)}),
		)

		It("should wrap store failures", func() {
			mockStore.createFn = func(context.Context, *model.BlockWindow) error {
				return errors.New("connection refused")
			}
			_, err := svc.Create(ctx, service.CreateBlockWindowParams{Branch: "main", StartsAt: start, EndsAt: start})
			Expect(err).To(MatchError(ContainSubstring("creating block window")))
		})
	})

	Describe("Import", func() {
		It("should create every window inside one transaction", func() {
			txCalls := 0
			txRunner.withTxFn = func(ctx context.Context, fn func(stores service.StoreProvider) error) error {
				txCalls++
				return fn(txRunner.stores)
			}
			var branches []string
			mockStore.createFn = func(_ context.Context, w *model.BlockWindow) error {
				branches = append(branches, w.Branch)
				return nil
			}

			windows, err := svc.Import(ctx, []service.CreateBlockWindowParams{
				{Branch: "main", StartsAt: start, EndsAt: start.Add(time.Hour)},
				{Branch: "release/2.x", StartsAt: start, EndsAt: start.Add(2 * time.Hour)},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(txCalls).To(Equal(1))
			Expect(windows).To(HaveLen(2))
			Expect(windows[0].ID).NotTo(Equal(windows[1].ID))
			Expect(branches).To(Equal([]string{"main", "release/2.x"}))
		})

		It("should validate every window before touching the store", func() {
			mockStore.createFn = func(context.Context, *model.BlockWindow) error {
				Fail("store must not be called")
				return nil
			}

			_, err := svc.Import(ctx, []service.CreateBlockWindowParams{
				{Branch: "main", StartsAt: start, EndsAt: start.Add(time.Hour)},
				{Branch: "", StartsAt: start, EndsAt: start.Add(time.Hour)},
			})

			Expect(err).To(MatchError(domain.ErrInvalidRequest))
			Expect(err.Error()).To(ContainSubstring("window 2"))
		})

		It("should reject an empty import", func() {
			_, err := svc.Import(ctx, nil)
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
		})

		It("should surface a failed transaction", func() {
			mockStore.createFn = func(context.Context, *model.BlockWindow) error {
				return errors.New("duplicate key")
			}

			_, err := svc.Import(ctx, []service.CreateBlockWindowParams{
				{Branch: "main", StartsAt: start, EndsAt: start.Add(time.Hour)},
			})

			Expect(err).To(MatchError(ContainSubstring("duplicate key")))
		})
	})

	Describe("List", func() {
		It("should default the page size", func() {
			mockStore.listFn = func(_ context.Context, limit, offset int32) ([]model.BlockWindow, error) {
				Expect(limit).To(Equal(int32(10)))
				Expect(offset).To(Equal(int32(0)))
				return []model.BlockWindow{{ID: 1}}, nil
			}
			windows, err := svc.List(ctx, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(windows).To(HaveLen(1))
		})

		It("should page and cap the size", func() {
			mockStore.listFn = func(_ context.Context, limit, offset int32) ([]model.BlockWindow, error) {
				Expect(limit).To(Equal(int32(100)))
				Expect(offset).To(Equal(int32(200)))
				return nil, nil
			}
			_, err := svc.List(ctx, 2, 500)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject a negative page", func() {
			_, err := svc.List(ctx, -1, 10)
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
		})

		It("should reject a page whose offset overflows", func() {
			called := false
			mockStore.listFn = func(_ context.Context, _, _ int32) ([]model.BlockWindow, error) {
				called = true
				return nil, nil
			}
			_, err := svc.List(ctx, 30_000_000, 100)
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
			Expect(called).To(BeFalse())
		})

		It("should accept the last addressable page", func() {
			mockStore.listFn = func(_ context.Context, limit, offset int32) ([]model.BlockWindow, error) {
				Expect(offset).To(Equal(int32(21474836 * 100)))
				return nil, nil
			}
			_, err := svc.List(ctx, 21474836, 100)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Get and Delete", func() {
		It("should translate missing windows", func() {
			mockStore.getByIDFn = func(context.Context, int64) (*model.BlockWindow, error) {
				return nil, store.ErrNotFound
			}
			mockStore.deleteFn = func(context.Context, int64) (*model.BlockWindow, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.Get(ctx, 7)
			Expect(err).To(MatchError(domain.ErrNotFound))
			_, err = svc.Delete(ctx, 7)
			Expect(err).To(MatchError(domain.ErrNotFound))
		})

		It("should return the deleted window", func() {
			mockStore.deleteFn = func(_ context.Context, id int64) (*model.BlockWindow, error) {
				return &model.BlockWindow{ID: id, Branch: "main"}, nil
			}
			w, err := svc.Delete(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.ID).To(Equal(int64(7)))
		})
	})

	Describe("ListActive", func() {
		It("should require a branch", func() {
			_, err := svc.ListActive(ctx, "", start)
			Expect(err).To(MatchError(domain.ErrInvalidRequest))
		})

		It("should pass branch and instant through", func() {
			mockStore.listActiveFn = func(_ context.Context, branch string, at time.Time) ([]model.BlockWindow, error) {
				Expect(branch).To(Equal("main"))
				Expect(at).To(Equal(start))
				return []model.BlockWindow{{ID: 3, Branch: "main"}}, nil
			}
			windows, err := svc.ListActive(ctx, "main", start)
			Expect(err).NotTo(HaveOccurred())
			Expect(windows).To(HaveLen(1))
		})
	})

	Describe("PurgeExpired", func() {
		It("should delete windows ended before now", func() {
			mockStore.deleteExpiredFn = func(_ context.Context, before time.Time) (int64, error) {
				Expect(before).To(Equal(start))
				return 4, nil
			}
			n, err := svc.PurgeExpired(ctx, start)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(4)))
		})
	})
})
