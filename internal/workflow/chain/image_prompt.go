package chain

import (
	"context"
	"fmt"
	"strings"

	"hydraskript-api/internal/domain/entity"
	wfmodel "hydraskript-api/internal/workflow/model"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
)

// OperationImagePrompt 插图提示词操作名
const OperationImagePrompt = "suggest_image_prompt"

type imagePromptUserVars struct {
	ChapterSummary string   `json:"chapter_summary"`
	StyleKeywords  []string `json:"style_keywords"`
	SDXLEnabled    bool     `json:"sdxl_enabled"`
	ProjectType    string   `json:"project_type"`
}

type ImagePromptChain struct {
	gen      workflowport.StructuredGenerator
	registry *workflowprompt.Registry
}

func NewImagePromptChain(gen workflowport.StructuredGenerator, registry *workflowprompt.Registry) *ImagePromptChain {
	return &ImagePromptChain{gen: gen, registry: registry}
}

func (c *ImagePromptChain) Invoke(ctx context.Context, in *wfmodel.ImagePromptInput, params Params) (*wfmodel.ImagePromptResult, error) {
	if c == nil {
		return nil, fmt.Errorf("image prompt chain not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.ChapterSummary) == "" {
		return nil, fmt.Errorf("chapter summary is required")
	}

	policy := workflowprompt.PolicyFor(entity.ProjectType(in.ProjectType))
	keywords := in.StyleKeywords
	if keywords == nil {
		keywords = []string{}
	}
	vars := imagePromptUserVars{
		ChapterSummary: strings.TrimSpace(in.ChapterSummary),
		StyleKeywords:  keywords,
		SDXLEnabled:    true,
		ProjectType:    string(policy.ProjectType),
	}

	call := structuredCall{
		operation:  OperationImagePrompt,
		promptID:   policy.ImagePrompt,
		userVars:   vars,
		schema:     wfmodel.ImagePromptSchema(),
		schemaName: "image_prompt",
		params:     params,
	}
	if policy.ThemeInInstruction {
		call.keywords = keywords
	}

	out := &wfmodel.ImagePromptResult{}
	if err := runStructured(ctx, c.gen, c.registry, call, out); err != nil {
		return nil, err
	}
	return out, nil
}
