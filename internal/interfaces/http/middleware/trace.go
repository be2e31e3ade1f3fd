// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"hydraskript-api/pkg/logger"
	"hydraskript-api/pkg/tracer"
)

// TraceIDHeader 响应中回传的 trace ID 头
const TraceIDHeader = "X-Trace-ID"

// Trace OpenTelemetry 追踪中间件，健康检查与指标端点不产生 Span
func Trace(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		_, ok := skip[r.URL.Path]
		return !ok
	}))
}

// TraceContext 将 trace_id/span_id 注入 Gin 与日志上下文
func TraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if traceID, spanID, ok := tracer.IDs(c.Request.Context()); ok {
			c.Set("trace_id", traceID)
			c.Set("span_id", spanID)

			ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
			ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
			c.Request = c.Request.WithContext(ctx)

			c.Header(TraceIDHeader, traceID)
		}
		c.Next()
	}
}
