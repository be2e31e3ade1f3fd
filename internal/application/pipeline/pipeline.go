// Package pipeline 实现项目流程：创世 → 大纲锁定 → 工作台。
// 生成调用在工作区锁之外执行，状态变更经 workspace.Update 串行提交。
package pipeline

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"hydraskript-api/internal/application/continuity"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/domain/entity"
	wfmodel "hydraskript-api/internal/workflow/model"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// Generator 流程依赖的生成网关操作
type Generator interface {
	GenerateOutline(ctx context.Context, in *wfmodel.OutlineInput) (*wfmodel.OutlineResult, error)
	GenerateChapterContent(ctx context.Context, in *wfmodel.ChapterDraftInput) (*wfmodel.ChapterDraftResult, error)
	RewriteSelection(ctx context.Context, in *wfmodel.RewriteInput) (*wfmodel.RewriteResult, error)
	SuggestImagePrompt(ctx context.Context, in *wfmodel.ImagePromptInput) (*wfmodel.ImagePromptResult, error)
	RenderImage(ctx context.Context, prompt, aspectRatio string) (*wfmodel.RenderedImage, error)
}

// Pipeline 项目流程服务
type Pipeline struct {
	ws      *workspace.Workspace
	gen     Generator
	tracker *continuity.Tracker
	guard   *chapterGuard
}

// New 创建项目流程服务
func New(ws *workspace.Workspace, gen Generator, tracker *continuity.Tracker) *Pipeline {
	return &Pipeline{
		ws:      ws,
		gen:     gen,
		tracker: tracker,
		guard:   newChapterGuard(),
	}
}

// SubmitGenesis 提交创世表单并生成大纲。
// 成功时原子地创建项目并进入大纲锁定阶段；失败时停留在创世阶段，不创建项目，表单输入保留。
func (p *Pipeline) SubmitGenesis(ctx context.Context, in entity.GenesisInput) (*entity.BookProject, error) {
	pt, err := entity.ParseProjectType(string(in.ProjectType))
	if err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}
	in.ProjectType = pt
	in.Topic = strings.TrimSpace(in.Topic)
	if in.Topic == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("topic is required")
	}

	if _, err := p.ws.Update(ctx, func(tx *workspace.Tx) error {
		if tx.Session.Stage != entity.StageGenesis {
			return apperrors.ErrInvalidStage.WithDetail("genesis can only be submitted from the genesis stage")
		}
		tx.Session.Draft = in
		return nil
	}); err != nil {
		return nil, err
	}

	style, err := p.ws.ActiveStyle(ctx)
	if err != nil {
		return nil, err
	}
	entities, err := p.ws.Entities(ctx)
	if err != nil {
		return nil, err
	}

	outline, err := p.gen.GenerateOutline(ctx, OutlineInput(in, style, entities))
	if err != nil {
		logger.Warn(ctx, "outline generation failed, staying in genesis", "error", err.Error())
		return nil, err
	}

	project := p.buildProject(in, outline, style, entities)
	if _, err := p.ws.Update(context.WithoutCancel(ctx), func(tx *workspace.Tx) error {
		if tx.Session.Stage != entity.StageGenesis {
			return apperrors.ErrInvalidStage.WithDetail("another outline was accepted first")
		}
		tx.SaveProject(project)
		tx.Session.Stage = entity.StageOutlineLock
		tx.Session.CurrentProjectID = project.ID
		tx.Session.ActiveChapterID = ""
		return nil
	}); err != nil {
		return nil, err
	}

	logger.Info(ctx, "project created from outline",
		"project_id", project.ID,
		"project_type", string(pt),
		"chapters", len(project.Chapters),
	)
	return project, nil
}

// buildProject 大纲章节按序号排序后重新编号为 1..N，全部为草稿
func (p *Pipeline) buildProject(in entity.GenesisInput, outline *wfmodel.OutlineResult, style *entity.StyleProfile, entities []*entity.StoryEntity) *entity.BookProject {
	items := append([]wfmodel.OutlineChapter(nil), outline.Chapters...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Number < items[j].Number })

	chapters := make([]*entity.Chapter, 0, len(items))
	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Chapter " + strconv.Itoa(i+1)
		}
		chapters = append(chapters, entity.NewChapter(p.ws.NewID(), i+1, title, strings.TrimSpace(item.Summary), item.KeyPoints))
	}

	project := &entity.BookProject{
		ID:             p.ws.NewID(),
		Type:           in.ProjectType,
		Title:          strings.TrimSpace(outline.Title),
		Topic:          in.Topic,
		Audience:       in.Audience,
		Genre:          in.Genre,
		Goals:          in.Goals,
		Length:         in.Length,
		Synopsis:       strings.TrimSpace(outline.Synopsis),
		Chapters:       chapters,
		StyleProfileID: style.ID,
		Entities:       entity.CloneEntities(entities),
		CreatedAt:      time.Now(),
	}
	project.Touch()
	return project
}

// ReturnToGenesis 回到创世阶段，表单输入保留。
// 大纲锁定阶段生成的项目被丢弃；工作台阶段的项目保留在项目列表中。
func (p *Pipeline) ReturnToGenesis(ctx context.Context) (*entity.Session, error) {
	return p.ws.Update(ctx, func(tx *workspace.Tx) error {
		if tx.Session.Stage == entity.StageOutlineLock && tx.Session.CurrentProjectID != "" {
			tx.DeleteProject(tx.Session.CurrentProjectID)
		}
		tx.Session.Stage = entity.StageGenesis
		tx.Session.CurrentProjectID = ""
		tx.Session.ActiveChapterID = ""
		return nil
	})
}

// LockOutline 锁定大纲进入工作台，第一章成为当前章节
func (p *Pipeline) LockOutline(ctx context.Context) (*entity.BookProject, error) {
	var locked *entity.BookProject
	_, err := p.ws.Update(ctx, func(tx *workspace.Tx) error {
		if tx.Session.Stage != entity.StageOutlineLock {
			return apperrors.ErrInvalidStage.WithDetail("outline can only be locked from the outline_lock stage")
		}
		proj, err := tx.CurrentProject()
		if err != nil {
			return err
		}
		tx.Session.Stage = entity.StageWorkspace
		tx.Session.ActiveChapterID = ""
		if first := proj.ChapterByNumber(1); first != nil {
			tx.Session.ActiveChapterID = first.ID
		}
		locked = proj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked, nil
}

// SelectChapter 切换当前章节
func (p *Pipeline) SelectChapter(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	var selected *entity.Chapter
	_, err := p.ws.Update(ctx, func(tx *workspace.Tx) error {
		_, ch, err := workspaceChapter(tx, chapterID)
		if err != nil {
			return err
		}
		tx.Session.ActiveChapterID = ch.ID
		selected = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// UpdateChapterContent 手动编辑正文，生成进行中时拒绝
func (p *Pipeline) UpdateChapterContent(ctx context.Context, chapterID, content string) (*entity.Chapter, error) {
	release, err := p.guard.acquire(chapterID, "manual_edit")
	if err != nil {
		return nil, err
	}
	defer release()

	return p.updateChapter(ctx, "", chapterID, func(_ *entity.BookProject, ch *entity.Chapter) error {
		ch.SetContent(content)
		return nil
	})
}

// ApproveChapter 审核通过已生成的章节
func (p *Pipeline) ApproveChapter(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	if p.guard.busy(chapterID) {
		return nil, apperrors.ErrGenerationInFlight.WithDetail(chapterID)
	}
	return p.updateChapter(ctx, "", chapterID, func(_ *entity.BookProject, ch *entity.Chapter) error {
		if err := ch.Approve(); err != nil {
			return apperrors.ErrPreconditionFailure.WithDetail(err.Error())
		}
		return nil
	})
}

// ApprovePendingEntities 批准待确认实体，names 为空时全部批准
func (p *Pipeline) ApprovePendingEntities(ctx context.Context, names []string) ([]string, error) {
	var approved []string
	_, err := p.ws.Update(ctx, func(tx *workspace.Tx) error {
		proj, err := tx.CurrentProject()
		if err != nil {
			return err
		}
		approved = continuity.ApprovePending(proj, names)
		tx.SaveProject(proj)
		return nil
	})
	return approved, err
}

// DismissPendingEntities 丢弃待确认实体，names 为空时全部丢弃
func (p *Pipeline) DismissPendingEntities(ctx context.Context, names []string) ([]string, error) {
	var dismissed []string
	_, err := p.ws.Update(ctx, func(tx *workspace.Tx) error {
		proj, err := tx.CurrentProject()
		if err != nil {
			return err
		}
		dismissed = continuity.DismissPending(proj, names)
		tx.SaveProject(proj)
		return nil
	})
	return dismissed, err
}

// MergePolicy 当前实体合并策略
func (p *Pipeline) MergePolicy() string {
	return p.tracker.Policy()
}

// updateChapter 在单写者事务内修改章节并保存；projectID 为空时使用当前项目
func (p *Pipeline) updateChapter(ctx context.Context, projectID, chapterID string, fn func(proj *entity.BookProject, ch *entity.Chapter) error) (*entity.Chapter, error) {
	var out *entity.Chapter
	_, err := p.ws.Update(ctx, func(tx *workspace.Tx) error {
		var (
			proj *entity.BookProject
			ch   *entity.Chapter
			err  error
		)
		if projectID == "" {
			proj, ch, err = workspaceChapter(tx, chapterID)
		} else {
			proj, ch, err = projectChapter(tx, projectID, chapterID)
		}
		if err != nil {
			return err
		}
		if err := fn(proj, ch); err != nil {
			return err
		}
		tx.SaveProject(proj)
		out = ch.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// workspaceChapter 工作台阶段在当前项目中查找章节
func workspaceChapter(tx *workspace.Tx, chapterID string) (*entity.BookProject, *entity.Chapter, error) {
	if tx.Session.Stage != entity.StageWorkspace {
		return nil, nil, apperrors.ErrInvalidStage.WithDetail("chapter operations require the workspace stage")
	}
	proj, err := tx.CurrentProject()
	if err != nil {
		return nil, nil, err
	}
	ch := proj.ChapterByID(chapterID)
	if ch == nil {
		return nil, nil, apperrors.ErrChapterNotFound.WithDetail(chapterID)
	}
	return proj, ch, nil
}

func projectChapter(tx *workspace.Tx, projectID, chapterID string) (*entity.BookProject, *entity.Chapter, error) {
	proj, err := tx.Project(projectID)
	if err != nil {
		return nil, nil, err
	}
	ch := proj.ChapterByID(chapterID)
	if ch == nil {
		return nil, nil, apperrors.ErrChapterNotFound.WithDetail(chapterID)
	}
	return proj, ch, nil
}

// OutlineInput 由创世表单、风格与故事圣经组装大纲生成输入，in 须已校验
func OutlineInput(in entity.GenesisInput, style *entity.StyleProfile, entities []*entity.StoryEntity) *wfmodel.OutlineInput {
	return &wfmodel.OutlineInput{
		Topic:       in.Topic,
		Genre:       in.Genre,
		Audience:    in.Audience,
		Length:      in.Length,
		Goals:       in.Goals,
		Style:       styleVars(style),
		Bible:       bibleEntries(entities, true),
		ProjectType: string(in.ProjectType),
	}
}

func styleVars(s *entity.StyleProfile) wfmodel.StyleVars {
	avoid := s.Avoid
	if avoid == nil {
		avoid = []string{}
	}
	return wfmodel.StyleVars{
		Name:          s.Name,
		Tone:          s.Tone,
		VoiceStrength: s.VoiceStrength,
		Avoid:         avoid,
		Examples:      s.Examples,
	}
}

// bibleEntries 发送给模型的条目只含名称、描述（可选类型），不含 ID
func bibleEntries(entities []*entity.StoryEntity, withType bool) []wfmodel.BibleEntry {
	out := make([]wfmodel.BibleEntry, 0, len(entities))
	for _, e := range entities {
		entry := wfmodel.BibleEntry{Name: e.Name, Description: e.Description}
		if withType {
			entry.Type = string(e.Type)
		}
		out = append(out, entry)
	}
	return out
}
