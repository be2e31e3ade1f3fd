// Package chain 将提示词、生成后端与结构化解码串成单次生成调用
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	wfmodel "hydraskript-api/internal/workflow/model"
	"hydraskript-api/internal/workflow/node"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
)

// Params 单次调用的生成参数
type Params struct {
	Temperature float32
	MaxTokens   int
}

type structuredCall struct {
	operation  string
	promptID   workflowprompt.PromptID
	userVars   any
	keywords   []string
	schema     *wfmodel.Schema
	schemaName string
	params     Params
}

// runStructured 渲染提示词，调用后端并解码到 dst。
// 不做重试，后端错误原样返回。
func runStructured(ctx context.Context, gen workflowport.StructuredGenerator, reg *workflowprompt.Registry, call structuredCall, dst node.Validatable) error {
	if gen == nil {
		return fmt.Errorf("structured generator not configured")
	}
	if reg == nil {
		return fmt.Errorf("prompt registry not configured")
	}

	payload, err := json.Marshal(call.userVars)
	if err != nil {
		return fmt.Errorf("marshal user vars: %w", err)
	}

	rendered, err := reg.Render(ctx, call.promptID, map[string]any{
		workflowprompt.VarUserVars:      string(payload),
		workflowprompt.VarStyleKeywords: strings.Join(call.keywords, ","),
	})
	if err != nil {
		return err
	}

	raw, err := gen.GenerateStructured(ctx, &workflowport.StructuredRequest{
		Operation:   call.operation,
		System:      rendered.System,
		User:        rendered.User,
		Schema:      call.schema,
		SchemaName:  call.schemaName,
		Temperature: call.params.Temperature,
		MaxTokens:   call.params.MaxTokens,
	})
	if err != nil {
		return err
	}
	return node.DecodeStructured(raw, dst, call.schema)
}
