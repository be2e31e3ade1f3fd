package chain

import (
	"context"
	"fmt"
	"strings"

	wfmodel "hydraskript-api/internal/workflow/model"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
)

// OperationRewrite 选区改写操作名
const OperationRewrite = "rewrite_selection"

// DefaultRewriteCommand 未指定指令时的改写要求
const DefaultRewriteCommand = "Improve flow and tone"

// 改写长度的建议浮动范围，仅作为提示传给模型
const rewriteMaxDelta = "±20%"

type rewriteUserVars struct {
	SelectedText string               `json:"selected_text"`
	Command      string               `json:"command"`
	StyleProfile wfmodel.StyleVars    `json:"style_profile"`
	StoryBible   []wfmodel.BibleEntry `json:"story_bible"`
	MaxDelta     string               `json:"max_delta"`
}

type RewriteChain struct {
	gen      workflowport.StructuredGenerator
	registry *workflowprompt.Registry
}

func NewRewriteChain(gen workflowport.StructuredGenerator, registry *workflowprompt.Registry) *RewriteChain {
	return &RewriteChain{gen: gen, registry: registry}
}

func (c *RewriteChain) Invoke(ctx context.Context, in *wfmodel.RewriteInput, params Params) (*wfmodel.RewriteResult, error) {
	if c == nil {
		return nil, fmt.Errorf("rewrite chain not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.SelectedText) == "" {
		return nil, fmt.Errorf("selected text is required")
	}

	command := strings.TrimSpace(in.Command)
	if command == "" {
		command = DefaultRewriteCommand
	}
	vars := rewriteUserVars{
		SelectedText: in.SelectedText,
		Command:      command,
		StyleProfile: in.Style,
		StoryBible:   nonNilBible(in.Bible),
		MaxDelta:     rewriteMaxDelta,
	}

	out := &wfmodel.RewriteResult{}
	err := runStructured(ctx, c.gen, c.registry, structuredCall{
		operation:  OperationRewrite,
		promptID:   workflowprompt.PromptRewriteV1,
		userVars:   vars,
		schema:     wfmodel.RewriteSchema(),
		schemaName: "rewrite_result",
		params:     params,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
