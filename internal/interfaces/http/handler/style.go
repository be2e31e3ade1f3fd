package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/interfaces/http/dto"
)

// 风格合并补丁大小上限
const maxPatchBytes = 64 << 10

// StyleHandler 风格档案处理器
type StyleHandler struct {
	ws *workspace.Workspace
}

// NewStyleHandler 创建风格处理器
func NewStyleHandler(ws *workspace.Workspace) *StyleHandler {
	return &StyleHandler{ws: ws}
}

// ListStyles 风格档案列表
// @Summary 风格列表
// @Tags Styles
// @Produce json
// @Success 200 {object} dto.Response[dto.StyleListResponse]
// @Router /v1/styles [get]
func (h *StyleHandler) ListStyles(c *gin.Context) {
	ctx := c.Request.Context()
	styles, err := h.ws.ListStyles(ctx)
	if err != nil {
		respondError(c, "failed to list styles", err)
		return
	}
	sess, err := h.ws.Session(ctx)
	if err != nil {
		respondError(c, "failed to load session", err)
		return
	}
	resp := &dto.StyleListResponse{
		Styles:   make([]*dto.StyleResponse, 0, len(styles)),
		ActiveID: sess.ActiveStyleID,
	}
	for _, s := range styles {
		resp.Styles = append(resp.Styles, dto.ToStyleResponse(s, sess.ActiveStyleID))
	}
	dto.Success(c, resp)
}

// SaveStyle 新增或覆盖风格档案
// @Summary 保存风格
// @Tags Styles
// @Accept json
// @Produce json
// @Param body body dto.SaveStyleRequest true "风格档案"
// @Success 201 {object} dto.Response[dto.StyleResponse]
// @Router /v1/styles [post]
func (h *StyleHandler) SaveStyle(c *gin.Context) {
	var req dto.SaveStyleRequest
	if !bindJSON(c, &req) {
		return
	}
	style, err := h.ws.SaveStyle(c.Request.Context(), req.ToEntity())
	if err != nil {
		respondError(c, "failed to save style", err)
		return
	}
	dto.Created(c, dto.ToStyleResponse(style, ""))
}

// ActivateStyle 切换激活风格
// @Summary 激活风格
// @Tags Styles
// @Produce json
// @Param sid path string true "风格 ID"
// @Success 200 {object} dto.Response[dto.StyleResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/styles/{sid}/activate [post]
func (h *StyleHandler) ActivateStyle(c *gin.Context) {
	style, err := h.ws.ActivateStyle(c.Request.Context(), dto.BindStyleID(c))
	if err != nil {
		respondError(c, "failed to activate style", err)
		return
	}
	dto.Success(c, dto.ToStyleResponse(style, style.ID))
}

// ActiveStyle 当前激活风格
// @Summary 激活风格详情
// @Tags Styles
// @Produce json
// @Success 200 {object} dto.Response[dto.StyleResponse]
// @Router /v1/styles/active [get]
func (h *StyleHandler) ActiveStyle(c *gin.Context) {
	style, err := h.ws.ActiveStyle(c.Request.Context())
	if err != nil {
		respondError(c, "failed to load active style", err)
		return
	}
	dto.Success(c, dto.ToStyleResponse(style, style.ID))
}

// PatchActiveStyle 以 JSON Merge Patch 更新激活风格
// @Summary 更新激活风格
// @Tags Styles
// @Accept application/merge-patch+json
// @Produce json
// @Success 200 {object} dto.Response[dto.StyleResponse]
// @Router /v1/styles/active [patch]
func (h *StyleHandler) PatchActiveStyle(c *gin.Context) {
	patch, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatchBytes))
	if err != nil {
		dto.BadRequest(c, "failed to read request body")
		return
	}
	style, err := h.ws.PatchActiveStyle(c.Request.Context(), patch)
	if err != nil {
		respondError(c, "failed to patch active style", err)
		return
	}
	dto.Success(c, dto.ToStyleResponse(style, style.ID))
}
