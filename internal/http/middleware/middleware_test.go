package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/common/logger"
	"releaseguard.app/guard/internal/http/middleware"
)

var _ = Describe("RequireAdminAPIKey", func() {
	serve := func(configured string, headers map[string]string) int {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(middleware.RequireAdminAPIKey(configured))
		router.POST("/admin", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	It("returns 503 when no key is configured", func() {
		Expect(serve("", map[string]string{"X-Admin-API-Key": "anything"})).To(Equal(http.StatusServiceUnavailable))
	})

	It("returns 401 for a missing or wrong key", func() {
		Expect(serve("secret", nil)).To(Equal(http.StatusUnauthorized))
		Expect(serve("secret", map[string]string{"X-Admin-API-Key": "nope"})).To(Equal(http.StatusUnauthorized))
	})

	It("accepts the header or a bearer token", func() {
		Expect(serve("secret", map[string]string{"X-Admin-API-Key": "secret"})).To(Equal(http.StatusNoContent))
		Expect(serve("secret", map[string]string{"Authorization": "Bearer secret"})).To(Equal(http.StatusNoContent))
	})
})

var _ = Describe("RequestID", func() {
	var router *gin.Engine

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(middleware.RequestID())
		router.GET("/ping", func(c *gin.Context) {
			fields := logger.GetLogFields(c.Request.Context())
			Expect(fields.RequestID).NotTo(BeNil())
			c.String(http.StatusOK, *fields.RequestID)
		})
	})

	It("propagates the caller's request id", func() {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.RequestIDHeader)).To(Equal("req-123"))
		Expect(w.Body.String()).To(Equal("req-123"))
	})

	It("mints one when absent", func() {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
	})
})

var _ = Describe("Recovery", func() {
	It("turns a panic into a 500", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(middleware.Recovery())
		router.GET("/boom", func(*gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error": "internal server error"}`))
	})
})
