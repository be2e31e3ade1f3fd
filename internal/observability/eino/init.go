// Package eino 注册 Eino 全局回调：模型调用上报 Token、耗时与 Span，提示词渲染按工作流计数
package eino

import (
	"context"
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"

	llmctx "hydraskript-api/internal/domain/service"
	"hydraskript-api/pkg/metrics"
)

var initOnce sync.Once

// Init 进程级注册一次，api-gateway 与 hydractl 启动时调用
func Init() {
	initOnce.Do(func() {
		einocallbacks.AppendGlobalHandlers(newHandler())
	})
}

func newHandler() einocallbacks.Handler {
	return cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler()).
		Prompt(newPromptCallbackHandler()).
		Handler()
}

func newPromptCallbackHandler() *cbtemplate.PromptCallbackHandler {
	return &cbtemplate.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, _ *einocallbacks.RunInfo, _ *prompt.CallbackOutput) context.Context {
			metrics.PromptRenderTotal.WithLabelValues(llmctx.WorkflowFromContext(ctx), "success").Inc()
			return ctx
		},
		OnError: func(ctx context.Context, _ *einocallbacks.RunInfo, _ error) context.Context {
			metrics.PromptRenderTotal.WithLabelValues(llmctx.WorkflowFromContext(ctx), "error").Inc()
			return ctx
		},
	}
}
