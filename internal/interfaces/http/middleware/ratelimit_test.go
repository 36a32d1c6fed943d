package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	allowed bool
	err     error
	lastKey string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.lastKey = key
	return s.allowed, s.err
}

func newRateLimitRouter(cfg RateLimitConfig, limiter RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(cfg, limiter))
	r.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_Allowed(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	r := newRateLimitRouter(RateLimitConfig{Enabled: true, RequestsPerSecond: 10}, limiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	// 未認証の主体は IP ベースのキーになる
	assert.Contains(t, limiter.lastKey, "ratelimit:anonymous:")
	assert.Contains(t, limiter.lastKey, "/api/ping")
}

func TestRateLimit_Exceeded(t *testing.T) {
	r := newRateLimitRouter(RateLimitConfig{Enabled: true, RequestsPerSecond: 10}, &stubLimiter{allowed: false})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"detail":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_FailOpen(t *testing.T) {
	r := newRateLimitRouter(RateLimitConfig{Enabled: true, RequestsPerSecond: 10}, &stubLimiter{err: assert.AnError})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	// 限流器故障時は素通し
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	r := newRateLimitRouter(RateLimitConfig{Enabled: false}, limiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, limiter.lastKey)
}
