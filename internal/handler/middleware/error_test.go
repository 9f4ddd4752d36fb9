//go:build unit

package middleware_test

import (
	"net/http"
	"testing"

	"digital-store/internal/handler/httperr"
	"digital-store/internal/handler/middleware"
	"digital-store/internal/pkg/errs"
	"digital-store/internal/testutil/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CustomRecovery(), middleware.ErrorHandler())

	router.GET("/public", func(c *gin.Context) {
		httperr.AbortWithError(c, http.StatusConflict, errs.New("boom"), "Conflict", nil)
	})
	router.GET("/panic", func(_ *gin.Context) {
		panic("unexpected")
	})
	router.GET("/status-only", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.GET("/private", func(c *gin.Context) {
		_ = c.Error(errs.New("hidden"))
	})

	t.Run("公開エラーはそのまま返す", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/public", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusConflict, "")
	})

	t.Run("panicは500に変換される", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/panic", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusInternalServerError, "")
	})

	t.Run("ステータスのみのレスポンスは維持される", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/status-only", nil, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("内部エラーは詳細を隠して500", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/private", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusInternalServerError, "")
		assert.NotContains(t, rec.Body.String(), "hidden")
	})
}

func TestAbortWithRules(t *testing.T) {
	gin.SetMode(gin.TestMode)
	errBusy := errs.New("busy")
	rules := []httperr.Rule{
		{Target: errBusy, Status: http.StatusServiceUnavailable, Code: "retry", Message: "Busy"},
	}

	router := gin.New()
	router.GET("/:kind", func(c *gin.Context) {
		if c.Param("kind") == "busy" {
			httperr.AbortWithRules(c, errs.Wrap(errBusy, "stock"), rules, "Failed")
			return
		}
		httperr.AbortWithRules(c, errs.New("other"), rules, "Failed")
	})

	rec := httptest.PerformRequest(t, router, http.MethodGet, "/busy", nil, "")
	httptest.AssertErrorResponse(t, rec, http.StatusServiceUnavailable, "retry")

	rec = httptest.PerformRequest(t, router, http.MethodGet, "/other", nil, "")
	httptest.AssertErrorResponse(t, rec, http.StatusInternalServerError, "")
}
