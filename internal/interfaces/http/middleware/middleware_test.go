package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"hydraskript-api/internal/infrastructure/persistence/redis"
	apperrors "hydraskript-api/pkg/errors"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })
	return engine
}

func get(engine http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRecovery(t *testing.T) {
	w := get(newEngine(Recovery()), "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error_code":"`+string(apperrors.CodeInternalError)+`"`)
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	engine := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = get(engine, "/ping")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1", "/v1/genesis")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1", "/v1/genesis")
	assert.False(t, ok)

	// 不同接口与不同客户端各自计数
	ok, _ = l.Allow(ctx, "10.0.0.1", "/v1/narration")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "10.0.0.2", "/v1/genesis")
	assert.True(t, ok)
}

func TestSharedLimiterOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClientFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	keyFunc := func(clientKey, endpoint string) string {
		return redis.BuildRateLimitKey("test", clientKey, endpoint)
	}
	l := NewSharedLimiter(redis.NewRateLimiter(client), keyFunc, 1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1", "/v1/genesis")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "10.0.0.1", "/v1/genesis")
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, string) (bool, error) {
	return false, errors.New("redis down")
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, string) (bool, error) { return false, nil }

func TestRateLimitMiddleware(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newEngine(RateLimit(nil)), "/ping").Code)
	assert.Equal(t, http.StatusOK, get(newEngine(RateLimit(failingLimiter{})), "/ping").Code)

	w := get(newEngine(RateLimit(denyAll{})), "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"error_code":"`+string(apperrors.CodeTooManyRequests)+`"`)
}

func TestMetricsRecordsRequest(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newEngine(Metrics()), "/ping").Code)
}

func TestTraceContextEchoesTraceID(t *testing.T) {
	assert.Empty(t, get(newEngine(TraceContext()), "/ping").Header().Get(TraceIDHeader))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	var traceID string
	withSpan := func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()
		traceID = span.SpanContext().TraceID().String()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}

	w := get(newEngine(withSpan, TraceContext()), "/ping")
	require.NotEmpty(t, traceID)
	assert.Equal(t, traceID, w.Header().Get(TraceIDHeader))
}
