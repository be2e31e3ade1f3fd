package llm

import (
	"context"
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	llmctx "hydraskript-api/internal/domain/service"
	"hydraskript-api/internal/workflow/node"
	workflowport "hydraskript-api/internal/workflow/port"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// 结构化输出约束方式
const (
	// StructuredOutputJSONSchema 以 response_format=json_schema 约束输出
	StructuredOutputJSONSchema = "json_schema"
	// StructuredOutputPrompt 只靠提示词约束，用于不接受 response_format 的兼容端点
	StructuredOutputPrompt = "prompt"
)

// EinoGenerator 通过 OpenAI 兼容端点执行结构化生成
type EinoGenerator struct {
	factory   workflowport.ChatModelFactory
	provider  string
	useSchema bool
}

// NewEinoGenerator 创建 Eino 结构化生成后端，mode 为空时使用 json_schema
func NewEinoGenerator(factory workflowport.ChatModelFactory, provider, mode string) *EinoGenerator {
	return &EinoGenerator{
		factory:   factory,
		provider:  strings.TrimSpace(provider),
		useSchema: !strings.EqualFold(strings.TrimSpace(mode), StructuredOutputPrompt),
	}
}

// GenerateStructured 每次调用只发送一次请求；约束方式在构造时按提供商配置确定
func (g *EinoGenerator) GenerateStructured(ctx context.Context, req *workflowport.StructuredRequest) (string, error) {
	ctx = llmctx.WithWorkflowProvider(ctx, req.Operation, g.provider)
	chatModel, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return "", err
	}

	msgs := []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.User),
	}

	out, err := chatModel.Generate(ctx, msgs, buildModelOptions(req, g.useSchema && req.Schema != nil)...)
	if err != nil {
		if g.useSchema && node.IsResponseFormatUnsupportedError(err) {
			logger.Warn(ctx, "provider rejected response_format, set structured_output: prompt for this provider",
				"provider", g.provider,
				"operation", req.Operation,
			)
		}
		return "", classifyBackendError(err)
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

func buildModelOptions(req *workflowport.StructuredRequest, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 3)
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if enableSchema {
		name := req.SchemaName
		if name == "" {
			name = req.Operation
		}
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   name,
					"strict": false,
					"schema": req.Schema.JSONSchema(),
				},
			},
		}))
	}
	return opts
}

// classifyBackendError 将后端错误归入错误分类，已归类的错误原样返回
func classifyBackendError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	if node.IsAuthError(err) {
		return apperrors.ErrAuthFailure.WithError(err)
	}
	return apperrors.Wrap(err, apperrors.CodeLLMProviderError, "generation backend call failed")
}
