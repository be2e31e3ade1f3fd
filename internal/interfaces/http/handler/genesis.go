package handler

import (
	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/interfaces/http/dto"
)

// GenesisHandler 创世与大纲锁定阶段处理器
type GenesisHandler struct {
	pipeline *pipeline.Pipeline
	ws       *workspace.Workspace
}

// NewGenesisHandler 创建创世处理器
func NewGenesisHandler(p *pipeline.Pipeline, ws *workspace.Workspace) *GenesisHandler {
	return &GenesisHandler{pipeline: p, ws: ws}
}

// Submit 提交创世表单并生成大纲
// @Summary 生成大纲
// @Tags Genesis
// @Accept json
// @Produce json
// @Param body body dto.GenesisRequest true "创世表单"
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/genesis [post]
func (h *GenesisHandler) Submit(c *gin.Context) {
	var req dto.GenesisRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.pipeline.SubmitGenesis(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, "failed to generate outline", err)
		return
	}
	dto.Created(c, dto.ToProjectResponse(project))
}

// Back 回到创世阶段
// @Summary 返回创世
// @Tags Genesis
// @Produce json
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Router /v1/genesis/back [post]
func (h *GenesisHandler) Back(c *gin.Context) {
	sess, err := h.pipeline.ReturnToGenesis(c.Request.Context())
	if err != nil {
		respondError(c, "failed to return to genesis", err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(sess, h.pipeline.MergePolicy()))
}

// Lock 锁定大纲进入工作台
// @Summary 锁定大纲
// @Tags Genesis
// @Produce json
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/genesis/lock [post]
func (h *GenesisHandler) Lock(c *gin.Context) {
	project, err := h.pipeline.LockOutline(c.Request.Context())
	if err != nil {
		respondError(c, "failed to lock outline", err)
		return
	}
	dto.Success(c, dto.ToProjectResponse(project))
}

// Session 当前阶段、表单草稿与当前章节
// @Summary 会话状态
// @Tags Genesis
// @Produce json
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Router /v1/session [get]
func (h *GenesisHandler) Session(c *gin.Context) {
	sess, err := h.ws.Session(c.Request.Context())
	if err != nil {
		respondError(c, "failed to load session", err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(sess, h.pipeline.MergePolicy()))
}
