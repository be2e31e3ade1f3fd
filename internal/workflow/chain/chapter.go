package chain

import (
	"context"
	"fmt"

	"hydraskript-api/internal/domain/entity"
	wfmodel "hydraskript-api/internal/workflow/model"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
)

// OperationChapter 章节正文生成操作名
const OperationChapter = "generate_chapter_content"

type chapterUserVars struct {
	ChapterOutline       wfmodel.ChapterRef     `json:"chapter_outline"`
	LockedOutlineContext wfmodel.ProjectContext `json:"locked_outline_context"`
	StoryBible           []wfmodel.BibleEntry   `json:"story_bible"`
	StyleProfile         wfmodel.StyleVars      `json:"style_profile"`
	Mode                 string                 `json:"mode"`
	ProjectType          string                 `json:"project_type"`
	PreviousChapterRecap string                 `json:"previous_chapter_recap,omitempty"`
}

type ChapterChain struct {
	gen      workflowport.StructuredGenerator
	registry *workflowprompt.Registry
}

func NewChapterChain(gen workflowport.StructuredGenerator, registry *workflowprompt.Registry) *ChapterChain {
	return &ChapterChain{gen: gen, registry: registry}
}

func (c *ChapterChain) Invoke(ctx context.Context, in *wfmodel.ChapterDraftInput, params Params) (*wfmodel.ChapterDraftResult, error) {
	if c == nil {
		return nil, fmt.Errorf("chapter chain not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if in.Chapter.Number <= 0 {
		return nil, fmt.Errorf("chapter number is required")
	}

	policy := workflowprompt.PolicyFor(entity.ProjectType(in.ProjectType))
	ref := in.Chapter
	if ref.KeyPoints == nil {
		ref.KeyPoints = []string{}
	}
	vars := chapterUserVars{
		ChapterOutline:       ref,
		LockedOutlineContext: in.Project,
		StoryBible:           nonNilBible(in.Bible),
		StyleProfile:         in.Style,
		Mode:                 in.Mode,
		ProjectType:          string(policy.ProjectType),
		PreviousChapterRecap: in.PreviousChapterRecap,
	}

	out := &wfmodel.ChapterDraftResult{}
	err := runStructured(ctx, c.gen, c.registry, structuredCall{
		operation:  OperationChapter,
		promptID:   policy.Chapter,
		userVars:   vars,
		schema:     wfmodel.ChapterDraftSchema(),
		schemaName: "chapter_draft",
		params:     params,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
