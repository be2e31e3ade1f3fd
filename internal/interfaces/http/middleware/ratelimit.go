// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hydraskript-api/internal/interfaces/http/dto"
	"hydraskript-api/pkg/logger"
)

// RateLimiter 限流器
type RateLimiter interface {
	Allow(ctx context.Context, clientKey, endpoint string) (bool, error)
}

// RateLimit 限流中间件，limiter 为 nil 时不限流。限流器故障时放行
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP(), endpoint)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable, allowing request", "error", err.Error())
			c.Next()
			return
		}
		if !allowed {
			dto.TooManyRequests(c)
			return
		}
		c.Next()
	}
}

// 进程内限流器保留的客户端数量上限，超出后整体重置
const maxLocalLimiters = 10000

// LocalLimiter 进程内令牌桶限流器，按客户端与接口分别计数
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLocalLimiter 创建进程内限流器
func NewLocalLimiter(requestsPerSecond, burst int) *LocalLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if burst < requestsPerSecond {
		burst = requestsPerSecond
	}
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Allow 实现 RateLimiter
func (l *LocalLimiter) Allow(_ context.Context, clientKey, endpoint string) (bool, error) {
	key := clientKey + ":" + endpoint

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxLocalLimiters {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}

// WindowLimiter 滑动窗口限流实现，如 Redis 限流器
type WindowLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SharedLimiter 基于滑动窗口的多实例共享限流器
type SharedLimiter struct {
	backend WindowLimiter
	keyFunc func(clientKey, endpoint string) string
	limit   int
}

// NewSharedLimiter 创建共享限流器，每秒最多 max(requestsPerSecond, burst) 次
func NewSharedLimiter(backend WindowLimiter, keyFunc func(clientKey, endpoint string) string, requestsPerSecond, burst int) *SharedLimiter {
	limit := requestsPerSecond
	if burst > limit {
		limit = burst
	}
	if limit <= 0 {
		limit = 5
	}
	return &SharedLimiter{backend: backend, keyFunc: keyFunc, limit: limit}
}

// Allow 实现 RateLimiter
func (l *SharedLimiter) Allow(ctx context.Context, clientKey, endpoint string) (bool, error) {
	return l.backend.Allow(ctx, l.keyFunc(clientKey, endpoint), l.limit, time.Second)
}
