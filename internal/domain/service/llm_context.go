// Package service 放置跨层共享的领域约定
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

const unknown = "unknown"

// WithWorkflowProvider 标记本次生成调用的操作名与提供商，供回调上报
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return withValue(withValue(ctx, llmCtxKeyWorkflow, workflow), llmCtxKeyProvider, provider)
}

// WorkflowFromContext 返回操作名，未标记时为 unknown
func WorkflowFromContext(ctx context.Context) string {
	return valueFrom(ctx, llmCtxKeyWorkflow)
}

// ProviderFromContext 返回提供商，未标记时为 unknown
func ProviderFromContext(ctx context.Context) string {
	return valueFrom(ctx, llmCtxKeyProvider)
}

func withValue(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func valueFrom(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return unknown
	}
	s, ok := ctx.Value(key).(string)
	if !ok || s == "" {
		return unknown
	}
	return s
}
