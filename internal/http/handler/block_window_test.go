package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/http/handler"
	"releaseguard.app/guard/internal/http/middleware"
	httprouter "releaseguard.app/guard/internal/http/router"
	"releaseguard.app/guard/internal/model"
	"releaseguard.app/guard/internal/service"
)

var _ = Describe("BlockWindowHandler", func() {
	var (
		engine      *gin.Engine
		svc         *mockBlockScheduleService
		adminAPIKey string
		start       time.Time
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		svc = &mockBlockScheduleService{}
		adminAPIKey = "test-admin-key"
		start = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

		httprouter.BlockWindowRouter(
			engine.Group("/block-windows"),
			middleware.RequireAdminAPIKey(adminAPIKey),
			handler.NewBlockWindowHandler(svc, time.UTC),
		)
	})

	do := func(method, path string, body any, apiKey string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			req.Header.Set("X-Admin-API-Key", apiKey)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	Describe("List", func() {
		It("passes paging through with defaults", func() {
			svc.listFn = func(_ context.Context, page, perPage int) ([]model.BlockWindow, error) {
				Expect(page).To(Equal(0))
				Expect(perPage).To(Equal(0))
				return []model.BlockWindow{{ID: 1, Branch: "main", StartsAt: start, EndsAt: start.Add(time.Hour)}}, nil
			}

			w := do(http.MethodGet, "/block-windows", nil, "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["per_page"]).To(BeEquivalentTo(10))
			Expect(resp["windows"]).To(HaveLen(1))
		})

		It("rejects a negative page", func() {
			w := do(http.MethodGet, "/block-windows?page=-1", nil, "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ListActive", func() {
		It("requires a branch", func() {
			w := do(http.MethodGet, "/block-windows/active", nil, "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("uses the given instant", func() {
			svc.listActiveFn = func(_ context.Context, branch string, at time.Time) ([]model.BlockWindow, error) {
				Expect(branch).To(Equal("main"))
				Expect(at.Equal(start)).To(BeTrue())
				return nil, nil
			}
			w := do(http.MethodGet, "/block-windows/active?branch=main&at=2026-03-10T18:00:00Z", nil, "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"windows": []}`))
		})
	})

	Describe("Get", func() {
		It("returns 404 for an unknown window", func() {
			svc.getFn = func(_ context.Context, id int64) (*model.BlockWindow, error) {
				return nil, fmt.Errorf("block window %d: %w", id, domain.ErrNotFound)
			}
			w := do(http.MethodGet, "/block-windows/12", nil, "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(ContainSubstring("block window 12 not found"))
		})

		It("returns 400 for a malformed id", func() {
			w := do(http.MethodGet, "/block-windows/abc", nil, "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Create", func() {
		body := map[string]string{
			"branch":     "main",
			"starts_at":  "2026-03-10 18:00:00",
			"ends_at":    "2026-03-11T06:00:00Z",
			"reason":     "quarter close",
			"created_by": "ops",
		}

		It("requires the admin key", func() {
			w := do(http.MethodPost, "/block-windows", body, "")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))

			w = do(http.MethodPost, "/block-windows", body, "wrong")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("creates the window", func() {
			svc.createFn = func(_ context.Context, params service.CreateBlockWindowParams) (*model.BlockWindow, error) {
				Expect(params.Branch).To(Equal("main"))
				Expect(params.StartsAt.Equal(start)).To(BeTrue())
				Expect(params.EndsAt.Equal(start.Add(12 * time.Hour))).To(BeTrue())
				return &model.BlockWindow{
					ID: 1765432109876543210, Branch: params.Branch,
					StartsAt: params.StartsAt, EndsAt: params.EndsAt,
					Reason: params.Reason, CreatedBy: params.CreatedBy,
				}, nil
			}

			w := do(http.MethodPost, "/block-windows", body, adminAPIKey)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("1765432109876543210"))
			Expect(resp["starts_at"]).To(Equal("2026-03-10T18:00:00Z"))
		})

		It("rejects malformed timestamps", func() {
			bad := map[string]string{"branch": "main", "starts_at": "next week", "ends_at": "2026-03-11T06:00:00Z"}
			w := do(http.MethodPost, "/block-windows", bad, adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a missing branch", func() {
			bad := map[string]string{"starts_at": "2026-03-10T18:00:00Z", "ends_at": "2026-03-11T06:00:00Z"}
			w := do(http.MethodPost, "/block-windows", bad, adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps service validation errors", func() {
			svc.createFn = func(context.Context, service.CreateBlockWindowParams) (*model.BlockWindow, error) {
				return nil, fmt.Errorf("%w: end must not be before start", domain.ErrInvalidRequest)
			}
			w := do(http.MethodPost, "/block-windows", body, adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("end must not be before start"))
		})
	})

	Describe("Import", func() {
		It("creates every window in one call", func() {
			svc.importFn = func(_ context.Context, params []service.CreateBlockWindowParams) ([]model.BlockWindow, error) {
				Expect(params).To(HaveLen(2))
				Expect(params[1].Branch).To(Equal("release/2.x"))
				windows := make([]model.BlockWindow, len(params))
				for i, p := range params {
					windows[i] = model.BlockWindow{ID: int64(i + 1), Branch: p.Branch, StartsAt: p.StartsAt, EndsAt: p.EndsAt}
				}
				return windows, nil
			}

			w := do(http.MethodPost, "/block-windows/import", map[string]any{
				"windows": []map[string]string{
					{"branch": "main", "starts_at": "2026-03-10T18:00:00Z", "ends_at": "2026-03-11T06:00:00Z"},
					{"branch": "release/2.x", "starts_at": "2026-03-10 18:00", "ends_at": "2026-03-11 06:00"},
				},
			}, adminAPIKey)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp struct {
				Windows []map[string]any `json:"windows"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Windows).To(HaveLen(2))
		})

		It("names the entry with a bad timestamp", func() {
			w := do(http.MethodPost, "/block-windows/import", map[string]any{
				"windows": []map[string]string{
					{"branch": "main", "starts_at": "2026-03-10T18:00:00Z", "ends_at": "later"},
				},
			}, adminAPIKey)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("window 1"))
		})

		It("rejects an empty list", func() {
			w := do(http.MethodPost, "/block-windows/import", map[string]any{"windows": []any{}}, adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("requires the admin key", func() {
			w := do(http.MethodPost, "/block-windows/import", map[string]any{"windows": []any{}}, "")
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("Delete", func() {
		It("returns 404 when the window is gone", func() {
			svc.deleteFn = func(_ context.Context, id int64) (*model.BlockWindow, error) {
				return nil, fmt.Errorf("block window %d: %w", id, domain.ErrNotFound)
			}
			w := do(http.MethodDelete, "/block-windows/5", nil, adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the deleted window", func() {
			svc.deleteFn = func(_ context.Context, id int64) (*model.BlockWindow, error) {
				return &model.BlockWindow{ID: id, Branch: "main"}, nil
			}
			w := do(http.MethodDelete, "/block-windows/5", nil, adminAPIKey)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})
