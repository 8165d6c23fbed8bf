package middlewares

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// memoryLimiter 以内存计数模拟 Redis 的 INCR/EXPIRE。
type memoryLimiter struct {
	counts  map[string]int64
	expires map[string]time.Duration
	failing bool
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (m *memoryLimiter) Incr(ctx context.Context, key string) *redis.IntCmd {
	if m.failing {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memoryLimiter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func limitedRouter(l Limiter, limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login",
		RateLimit(l, "login", limit, window, func(c *gin.Context) string { return c.ClientIP() }),
		func(c *gin.Context) { c.JSON(200, gin.H{"message": "ok"}) },
	)
	return r
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	l := newMemoryLimiter()
	r := limitedRouter(l, 3, time.Minute)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
		require.Equal(t, 200, w.Code, "request %d within limit", i+1)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
	require.Equal(t, 429, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))
	require.Contains(t, w.Body.String(), "rate_limited")

	// 窗口 TTL 在首次计数时设置
	require.Equal(t, time.Minute, l.expires["rl:login:192.0.2.1"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	// Redis 不可用时放行请求，限流不能成为单点
	l := newMemoryLimiter()
	l.failing = true
	r := limitedRouter(l, 1, time.Minute)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
		require.Equal(t, 200, w.Code)
	}
}
