package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sports-club-api/internal/service"
	"github.com/noah-isme/sports-club-api/pkg/logger"
)

func newGuardedRouter(tokens TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(tokens))
	r.GET("/api/Groups", func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		c.String(http.StatusOK, claims.Subject)
	})
	return r
}

func TestJWTAcceptsValidToken(t *testing.T) {
	tokens := service.NewTokenService("secret")
	token, _, err := tokens.Issue("coach-1", "Koç", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/Groups", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newGuardedRouter(tokens).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coach-1", w.Body.String())
}

func TestJWTRejectsMissingOrInvalidToken(t *testing.T) {
	r := newGuardedRouter(service.NewTokenService("secret"))
	foreign, _, err := service.NewTokenService("other").Issue("coach-1", "", time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":        "",
		"wrong scheme":   "Basic abc",
		"foreign secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/Groups", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequestLogNamesOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	tokens := service.NewTokenService("secret")
	token, _, err := tokens.Issue("coach-1", "Koç", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.Use(logger.GinMiddleware(zap.New(core), OperatorLogFields))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	api := r.Group("/api", JWT(tokens))
	api.GET("/Groups", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/Groups", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "coach-1", entries[0].ContextMap()["operator"])
	assert.NotContains(t, entries[1].ContextMap(), "operator")
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/api/Lessons/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/Lessons/les-1", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `path="/api/Lessons/:id"`)
}

func TestMetricsCollapsesUnmatchedPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/does-not-exist/123", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `path="unmatched"`)
	assert.NotContains(t, rec.Body.String(), "does-not-exist")
}
