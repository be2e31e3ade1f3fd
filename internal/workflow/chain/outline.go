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

// OperationOutline 大纲生成操作名
const OperationOutline = "generate_outline"

type outlineUserVars struct {
	Topic        string               `json:"topic"`
	Audience     string               `json:"audience"`
	Genre        string               `json:"genre"`
	Goals        string               `json:"goals"`
	LengthTarget string               `json:"length_target"`
	StyleProfile wfmodel.StyleVars    `json:"style_profile"`
	ProjectType  string               `json:"project_type"`
	StoryBible   []wfmodel.BibleEntry `json:"story_bible"`
}

type OutlineChain struct {
	gen      workflowport.StructuredGenerator
	registry *workflowprompt.Registry
}

func NewOutlineChain(gen workflowport.StructuredGenerator, registry *workflowprompt.Registry) *OutlineChain {
	return &OutlineChain{gen: gen, registry: registry}
}

func (c *OutlineChain) Invoke(ctx context.Context, in *wfmodel.OutlineInput, params Params) (*wfmodel.OutlineResult, error) {
	if c == nil {
		return nil, fmt.Errorf("outline chain not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}

	policy := workflowprompt.PolicyFor(entity.ProjectType(in.ProjectType))
	vars := outlineUserVars{
		Topic:        strings.TrimSpace(in.Topic),
		Audience:     strings.TrimSpace(in.Audience),
		Genre:        strings.TrimSpace(in.Genre),
		Goals:        strings.TrimSpace(in.Goals),
		LengthTarget: strings.TrimSpace(in.Length),
		StyleProfile: in.Style,
		ProjectType:  string(policy.ProjectType),
		StoryBible:   nonNilBible(in.Bible),
	}

	out := &wfmodel.OutlineResult{}
	err := runStructured(ctx, c.gen, c.registry, structuredCall{
		operation:  OperationOutline,
		promptID:   policy.Outline,
		userVars:   vars,
		schema:     wfmodel.OutlineSchema(),
		schemaName: "book_outline",
		params:     params,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nonNilBible(entries []wfmodel.BibleEntry) []wfmodel.BibleEntry {
	if entries == nil {
		return []wfmodel.BibleEntry{}
	}
	return entries
}
