package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"hydraskript-api/internal/application/continuity"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/domain/entity"
	wfmodel "hydraskript-api/internal/workflow/model"
	"hydraskript-api/internal/workflow/node"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
	"hydraskript-api/pkg/metrics"
)

const (
	opGenerateChapter = "generate_chapter"
	opImagePrompt     = "image_prompt"
	opRenderImage     = "render_image"
	opRewrite         = "rewrite"
)

// Selection 改写选区。Start/End 为 rune 偏移，需同时提供
type Selection struct {
	Text  string `json:"text"`
	Start *int   `json:"start,omitempty"`
	End   *int   `json:"end,omitempty"`
}

// RewriteOutcome 改写结果。Applied 为 false 时正文未变，RewrittenText 仍返回给作者参考
type RewriteOutcome struct {
	Chapter       *entity.Chapter `json:"chapter"`
	RewrittenText string          `json:"rewritten_text"`
	Rationale     string          `json:"rationale_short"`
	Applied       bool            `json:"applied"`
}

// GenerateChapter 生成章节正文。
// 失败时章节回退为草稿；绘本与涂色书随后生成插图提示词，该步失败时返回已生成的章节与错误。
func (p *Pipeline) GenerateChapter(ctx context.Context, chapterID string, mode entity.GenerationMode) (*entity.Chapter, error) {
	if mode == "" {
		mode = entity.ModeBalanced
	}
	release, err := p.guard.acquire(chapterID, opGenerateChapter)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = logger.WithContext(ctx, logger.ChapterIDKey, chapterID)

	style, err := p.ws.ActiveStyle(ctx)
	if err != nil {
		return nil, err
	}

	var (
		projectID   string
		projectType entity.ProjectType
		in          *wfmodel.ChapterDraftInput
	)
	_, err = p.ws.Update(ctx, func(tx *workspace.Tx) error {
		proj, ch, err := workspaceChapter(tx, chapterID)
		if err != nil {
			return err
		}
		// 仅持有占用时才会走到这里，残留的 generating 来自中断的进程
		if ch.Status == entity.ChapterStatusGenerating {
			ch.RevertToDraft()
		}
		if err := ch.BeginGeneration(); err != nil {
			return apperrors.ErrGenerationInFlight.WithDetail(err.Error())
		}
		projectID = proj.ID
		projectType = proj.Type
		in = &wfmodel.ChapterDraftInput{
			Chapter: wfmodel.ChapterRef{
				Number:    ch.Number,
				Title:     ch.Title,
				Summary:   ch.Summary,
				KeyPoints: ch.KeyPoints,
			},
			Project: wfmodel.ProjectContext{
				Title:    proj.Title,
				Synopsis: proj.Synopsis,
			},
			Bible:                bibleEntries(proj.Entities, false),
			Style:                styleVars(style),
			Mode:                 string(mode),
			ProjectType:          string(proj.Type),
			PreviousChapterRecap: continuity.PreviousRecap(proj, ch),
		}
		tx.SaveProject(proj)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, genErr := p.gen.GenerateChapterContent(ctx, in)

	// 状态回写不受调用方取消影响
	persistCtx := context.WithoutCancel(ctx)
	if genErr != nil {
		if _, err := p.updateChapter(persistCtx, projectID, chapterID, func(_ *entity.BookProject, ch *entity.Chapter) error {
			ch.RevertToDraft()
			return nil
		}); err != nil {
			logger.Error(ctx, "failed to revert chapter after generation error", err)
		}
		metrics.ChapterGenerationTotal.WithLabelValues(string(projectType), string(mode), "error").Inc()
		return nil, genErr
	}

	var (
		report    continuity.MergeReport
		completed bool
	)
	out, err := p.updateChapter(persistCtx, projectID, chapterID, func(proj *entity.BookProject, ch *entity.Chapter) error {
		names := node.NormalizeNames(res.EntitiesIntroduced)
		if err := ch.CompleteGeneration(res.ContentMarkdown, res.RecapForNextChapter, names); err != nil {
			ch.RevertToDraft()
			return nil
		}
		completed = true
		report = p.tracker.MergeIntroduced(proj, ch, names)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !completed {
		metrics.ChapterGenerationTotal.WithLabelValues(string(projectType), string(mode), "error").Inc()
		return nil, apperrors.ErrEmptyResponse.WithDetail("chapter content is empty")
	}

	metrics.ChapterGenerationTotal.WithLabelValues(string(projectType), string(mode), "ok").Inc()
	metrics.ChapterWordCount.WithLabelValues(string(projectType)).Observe(float64(out.WordCount))
	logger.Info(ctx, "chapter generated",
		"project_id", projectID,
		"chapter_number", out.Number,
		"words", out.WordCount,
		"entities_merged", len(report.Merged),
		"entities_pending", len(report.Pending),
	)

	if !projectType.IsIllustrated() {
		return out, nil
	}
	illustrated, err := p.suggestImage(ctx, projectID, chapterID, style)
	if err != nil {
		logger.Warn(ctx, "image prompt after chapter generation failed", "error", err.Error())
		return out, err
	}
	return illustrated, nil
}

// GenerateImagePrompt 重新生成插图提示词，覆盖旧提示词并丢弃已渲染图片
func (p *Pipeline) GenerateImagePrompt(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	release, err := p.guard.acquire(chapterID, opImagePrompt)
	if err != nil {
		return nil, err
	}
	defer release()

	projectID, _, err := p.lookupChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	style, err := p.ws.ActiveStyle(ctx)
	if err != nil {
		return nil, err
	}
	return p.suggestImage(ctx, projectID, chapterID, style)
}

func (p *Pipeline) suggestImage(ctx context.Context, projectID, chapterID string, style *entity.StyleProfile) (*entity.Chapter, error) {
	var in *wfmodel.ImagePromptInput
	err := p.ws.View(ctx, func(tx *workspace.Tx) error {
		proj, ch, err := projectChapter(tx, projectID, chapterID)
		if err != nil {
			return err
		}
		summary := strings.TrimSpace(ch.Summary)
		if summary == "" {
			summary = ch.Title
		}
		in = &wfmodel.ImagePromptInput{
			ChapterSummary: summary,
			StyleKeywords:  style.Keywords(),
			ProjectType:    string(proj.Type),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := p.gen.SuggestImagePrompt(ctx, in)
	if err != nil {
		return nil, err
	}

	suggestion := &entity.ImagePrompt{
		Prompt:         res.ImagePrompt,
		NegativePrompt: res.NegativePrompts,
		AspectRatio:    res.SuggestedAspectRatio,
	}
	if res.SDXL != nil && res.SDXL.Seed != nil {
		seed := *res.SDXL.Seed
		suggestion.SDXLSeed = &seed
	}
	return p.updateChapter(context.WithoutCancel(ctx), projectID, chapterID, func(_ *entity.BookProject, ch *entity.Chapter) error {
		ch.SetImageSuggestion(suggestion)
		return nil
	})
}

// RenderImage 按现有插图提示词渲染图片，结果以 data URL 写回同一提示词对象
func (p *Pipeline) RenderImage(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	release, err := p.guard.acquire(chapterID, opRenderImage)
	if err != nil {
		return nil, err
	}
	defer release()

	projectID, ch, err := p.lookupChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if ch.ImageSuggestion == nil || strings.TrimSpace(ch.ImageSuggestion.Prompt) == "" {
		return nil, apperrors.ErrPreconditionFailure.WithDetail("chapter has no image suggestion")
	}

	img, err := p.gen.RenderImage(ctx, ch.ImageSuggestion.Prompt, ch.ImageSuggestion.AspectRatio)
	if err != nil {
		return nil, err
	}

	return p.updateChapter(context.WithoutCancel(ctx), projectID, chapterID, func(_ *entity.BookProject, c *entity.Chapter) error {
		if err := c.AttachRenderedImage(img.DataURL()); err != nil {
			return apperrors.ErrPreconditionFailure.WithDetail(err.Error())
		}
		return nil
	})
}

// RewriteSelection 改写选区并写回正文。
// 带偏移时先校验选区未过期；不带偏移时替换首个字面匹配，无匹配则正文不变。
func (p *Pipeline) RewriteSelection(ctx context.Context, chapterID string, sel Selection, command string) (*RewriteOutcome, error) {
	if strings.TrimSpace(sel.Text) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("selection text is required")
	}
	if (sel.Start == nil) != (sel.End == nil) {
		return nil, apperrors.ErrInvalidParam.WithDetail("selection start and end must be given together")
	}

	release, err := p.guard.acquire(chapterID, opRewrite)
	if err != nil {
		return nil, err
	}
	defer release()

	projectID, ch, err := p.lookupChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if !ch.HasContent() {
		return nil, apperrors.ErrPreconditionFailure.WithDetail("chapter has no content")
	}
	if sel.Start != nil {
		if _, _, err := applySelection(ch.Content, sel, sel.Text); err != nil {
			return nil, err
		}
	}

	style, err := p.ws.ActiveStyle(ctx)
	if err != nil {
		return nil, err
	}
	var bible []wfmodel.BibleEntry
	if err := p.ws.View(ctx, func(tx *workspace.Tx) error {
		proj, err := tx.Project(projectID)
		if err != nil {
			return err
		}
		bible = bibleEntries(proj.Entities, false)
		return nil
	}); err != nil {
		return nil, err
	}

	res, err := p.gen.RewriteSelection(ctx, &wfmodel.RewriteInput{
		SelectedText: sel.Text,
		Command:      command,
		Style:        styleVars(style),
		Bible:        bible,
	})
	if err != nil {
		return nil, err
	}

	outcome := &RewriteOutcome{
		RewrittenText: res.RewrittenText,
		Rationale:     res.RationaleShort,
	}
	updated, err := p.updateChapter(context.WithoutCancel(ctx), projectID, chapterID, func(_ *entity.BookProject, c *entity.Chapter) error {
		content, applied, err := applySelection(c.Content, sel, res.RewrittenText)
		if err != nil {
			return err
		}
		if applied {
			c.SetContent(content)
		}
		outcome.Applied = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	outcome.Chapter = updated
	return outcome, nil
}

// lookupChapter 读取工作台阶段当前项目中的章节副本
func (p *Pipeline) lookupChapter(ctx context.Context, chapterID string) (string, *entity.Chapter, error) {
	var (
		projectID string
		chapter   *entity.Chapter
	)
	err := p.ws.View(ctx, func(tx *workspace.Tx) error {
		proj, ch, err := workspaceChapter(tx, chapterID)
		if err != nil {
			return err
		}
		projectID = proj.ID
		chapter = ch.Clone()
		return nil
	})
	return projectID, chapter, err
}

// applySelection 在正文中替换选区，返回新正文与是否发生替换
func applySelection(content string, sel Selection, replacement string) (string, bool, error) {
	if sel.Start == nil || sel.End == nil {
		idx := strings.Index(content, sel.Text)
		if idx < 0 {
			return content, false, nil
		}
		return content[:idx] + replacement + content[idx+len(sel.Text):], true, nil
	}

	start, end := *sel.Start, *sel.End
	if start < 0 || end < start || end > utf8.RuneCountInString(content) {
		return content, false, apperrors.ErrPreconditionFailure.WithDetail("selection is stale")
	}
	runes := []rune(content)
	if string(runes[start:end]) != sel.Text {
		return content, false, apperrors.ErrPreconditionFailure.WithDetail("selection is stale")
	}
	return string(runes[:start]) + replacement + string(runes[end:]), true, nil
}
