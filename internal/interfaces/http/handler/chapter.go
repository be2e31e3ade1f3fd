package handler

import (
	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/interfaces/http/dto"
	"hydraskript-api/pkg/logger"
)

// ChapterHandler 工作台章节处理器
type ChapterHandler struct {
	pipeline *pipeline.Pipeline
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(p *pipeline.Pipeline) *ChapterHandler {
	return &ChapterHandler{pipeline: p}
}

// SelectChapter 切换当前章节
// @Summary 选择章节
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/select [post]
func (h *ChapterHandler) SelectChapter(c *gin.Context) {
	ch, err := h.pipeline.SelectChapter(c.Request.Context(), dto.BindChapterID(c))
	if err != nil {
		respondError(c, "failed to select chapter", err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}

// GenerateChapter 生成章节正文
// @Summary 生成章节
// @Description 绘本与涂色书在正文生成后自动生成插图提示词，该步失败时通过 image_error 返回
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Param body body dto.GenerateChapterRequest false "生成档位"
// @Success 200 {object} dto.Response[dto.GenerateChapterResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/generate [post]
func (h *ChapterHandler) GenerateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	var req dto.GenerateChapterRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	mode, err := entity.ParseGenerationMode(req.Mode)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	ch, err := h.pipeline.GenerateChapter(ctx, chapterID, mode)
	if err != nil && ch == nil {
		respondError(c, "failed to generate chapter", err)
		return
	}
	resp := &dto.GenerateChapterResponse{Chapter: dto.ToChapterResponse(ch)}
	if err != nil {
		logger.Warn(ctx, "chapter text kept after image prompt failure", "chapter_id", chapterID, "error", err.Error())
		resp.ImageError = dto.NewErrorDetail(err)
	}
	dto.Success(c, resp)
}

// GenerateImagePrompt 重新生成插图提示词
// @Summary 生成插图提示词
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Router /v1/chapters/{cid}/image-prompt [post]
func (h *ChapterHandler) GenerateImagePrompt(c *gin.Context) {
	ch, err := h.pipeline.GenerateImagePrompt(c.Request.Context(), dto.BindChapterID(c))
	if err != nil {
		respondError(c, "failed to generate image prompt", err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}

// RenderImage 渲染插图
// @Summary 渲染插图
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 412 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/render [post]
func (h *ChapterHandler) RenderImage(c *gin.Context) {
	ch, err := h.pipeline.RenderImage(c.Request.Context(), dto.BindChapterID(c))
	if err != nil {
		respondError(c, "failed to render image", err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}

// RewriteSelection 改写选区
// @Summary 改写选区
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Param body body dto.RewriteRequest true "选区与指令"
// @Success 200 {object} dto.Response[dto.RewriteResponse]
// @Failure 412 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/rewrite [post]
func (h *ChapterHandler) RewriteSelection(c *gin.Context) {
	var req dto.RewriteRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.pipeline.RewriteSelection(c.Request.Context(), dto.BindChapterID(c), req.ToSelection(), req.Command)
	if err != nil {
		respondError(c, "failed to rewrite selection", err)
		return
	}
	dto.Success(c, dto.ToRewriteResponse(out))
}

// UpdateContent 手动编辑正文
// @Summary 编辑正文
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Param body body dto.UpdateContentRequest true "正文"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Router /v1/chapters/{cid}/content [put]
func (h *ChapterHandler) UpdateContent(c *gin.Context) {
	var req dto.UpdateContentRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := h.pipeline.UpdateChapterContent(c.Request.Context(), dto.BindChapterID(c), *req.Content)
	if err != nil {
		respondError(c, "failed to update chapter content", err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}

// ApproveChapter 审核通过
// @Summary 审核章节
// @Tags Chapters
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Router /v1/chapters/{cid}/approve [post]
func (h *ChapterHandler) ApproveChapter(c *gin.Context) {
	ch, err := h.pipeline.ApproveChapter(c.Request.Context(), dto.BindChapterID(c))
	if err != nil {
		respondError(c, "failed to approve chapter", err)
		return
	}
	dto.Success(c, dto.ToChapterResponse(ch))
}
