package handler

import (
	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/interfaces/http/dto"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	pipeline *pipeline.Pipeline
	ws       *workspace.Workspace
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(p *pipeline.Pipeline, ws *workspace.Workspace) *ProjectHandler {
	return &ProjectHandler{pipeline: p, ws: ws}
}

// ListProjects 已保存项目列表
// @Summary 项目列表
// @Tags Projects
// @Produce json
// @Success 200 {object} dto.Response[dto.ProjectListResponse]
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	list, err := h.ws.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, "failed to list projects", err)
		return
	}
	dto.Success(c, &dto.ProjectListResponse{Projects: list})
}

// CurrentProject 当前项目
// @Summary 当前项目
// @Tags Projects
// @Produce json
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/current [get]
func (h *ProjectHandler) CurrentProject(c *gin.Context) {
	project, err := h.ws.CurrentProject(c.Request.Context())
	if err != nil {
		respondError(c, "failed to load current project", err)
		return
	}
	dto.Success(c, dto.ToProjectResponse(project))
}

// OpenProject 打开已保存项目
// @Summary 打开项目
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/open [post]
func (h *ProjectHandler) OpenProject(c *gin.Context) {
	project, err := h.ws.OpenProject(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, "failed to open project", err)
		return
	}
	dto.Success(c, dto.ToProjectResponse(project))
}

// ApprovePending 批准待确认实体
// @Summary 批准待确认实体
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.PendingEntitiesRequest false "名称列表，为空表示全部"
// @Success 200 {object} dto.Response[dto.PendingEntitiesResponse]
// @Router /v1/projects/current/entities/pending/approve [post]
func (h *ProjectHandler) ApprovePending(c *gin.Context) {
	var req dto.PendingEntitiesRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	names, err := h.pipeline.ApprovePendingEntities(c.Request.Context(), req.Names)
	if err != nil {
		respondError(c, "failed to approve pending entities", err)
		return
	}
	dto.Success(c, &dto.PendingEntitiesResponse{Names: names})
}

// DismissPending 忽略待确认实体
// @Summary 忽略待确认实体
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.PendingEntitiesRequest false "名称列表，为空表示全部"
// @Success 200 {object} dto.Response[dto.PendingEntitiesResponse]
// @Router /v1/projects/current/entities/pending/dismiss [post]
func (h *ProjectHandler) DismissPending(c *gin.Context) {
	var req dto.PendingEntitiesRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	names, err := h.pipeline.DismissPendingEntities(c.Request.Context(), req.Names)
	if err != nil {
		respondError(c, "failed to dismiss pending entities", err)
		return
	}
	dto.Success(c, &dto.PendingEntitiesResponse{Names: names})
}
