package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingLimiter struct {
	max  int
	seen map[string]int
	err  error
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.seen[key]++
	if l.seen[key] > l.max {
		return &Result{Allowed: false, RetryAfter: 1500 * time.Millisecond}, nil
	}
	return &Result{Allowed: true, Remaining: l.max - l.seen[key]}, nil
}

func newRouter(limiter Limiter, user string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user != "" {
			c.Set("user_id", user)
		}
	})
	r.Use(Middleware(limiter, Limit{Rate: 2, Period: time.Minute, Burst: 2}, zap.NewNop()))
	r.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMiddlewareLimitsPerUser(t *testing.T) {
	limiter := &countingLimiter{max: 2, seen: map[string]int{}}
	r := newRouter(limiter, "alice")

	codes := []int{}
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/products", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"Too many requests, please try again later"}`, last.Body.String())
	assert.Equal(t, 3, limiter.seen["ratelimit:user:alice"])
}

func TestMiddlewareKeysAnonymousByIP(t *testing.T) {
	limiter := &countingLimiter{max: 5, seen: map[string]int{}}
	r := newRouter(limiter, "")

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, limiter.seen["ratelimit:ip:10.0.0.7"])
}

func TestMiddlewareFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := newRouter(limiter, "alice")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
