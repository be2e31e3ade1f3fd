package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/interfaces/http/dto"
)

// 故事圣经导入大小上限
const maxBibleImportBytes = 1 << 20

// EntityHandler 故事圣经处理器
type EntityHandler struct {
	ws *workspace.Workspace
}

// NewEntityHandler 创建故事圣经处理器
func NewEntityHandler(ws *workspace.Workspace) *EntityHandler {
	return &EntityHandler{ws: ws}
}

// ListEntities 按类型页签与名称搜索列出条目
// @Summary 条目列表
// @Tags Entities
// @Produce json
// @Param type query string false "条目类型"
// @Param q query string false "名称搜索"
// @Success 200 {object} dto.Response[dto.EntityListResponse]
// @Router /v1/entities [get]
func (h *EntityHandler) ListEntities(c *gin.Context) {
	filter := workspace.EntityFilter{Query: c.Query("q")}
	if raw := c.Query("type"); raw != "" {
		t, ok := entity.ParseStoryEntityType(raw)
		if !ok {
			dto.BadRequest(c, "unknown entity type: "+raw)
			return
		}
		filter.Type = t
	}
	list, err := h.ws.ListEntities(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to list entities", err)
		return
	}
	dto.Success(c, dto.ToEntityListResponse(list))
}

// CreateEntity 新增条目
// @Summary 新增条目
// @Tags Entities
// @Accept json
// @Produce json
// @Param body body dto.CreateEntityRequest true "条目"
// @Success 201 {object} dto.Response[dto.EntityResponse]
// @Router /v1/entities [post]
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	var req dto.CreateEntityRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.ws.AddEntity(c.Request.Context(), req.Type, req.Name, req.Description)
	if err != nil {
		respondError(c, "failed to create entity", err)
		return
	}
	dto.Created(c, dto.ToEntityResponse(e))
}

// PatchEntity 以 JSON Merge Patch 更新条目
// @Summary 更新条目
// @Tags Entities
// @Accept application/merge-patch+json
// @Produce json
// @Param eid path string true "条目 ID"
// @Success 200 {object} dto.Response[dto.EntityResponse]
// @Router /v1/entities/{eid} [patch]
func (h *EntityHandler) PatchEntity(c *gin.Context) {
	patch, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatchBytes))
	if err != nil {
		dto.BadRequest(c, "failed to read request body")
		return
	}
	e, err := h.ws.PatchEntity(c.Request.Context(), dto.BindEntityID(c), patch)
	if err != nil {
		respondError(c, "failed to patch entity", err)
		return
	}
	dto.Success(c, dto.ToEntityResponse(e))
}

// DeleteEntity 删除条目
// @Summary 删除条目
// @Tags Entities
// @Param eid path string true "条目 ID"
// @Success 204
// @Router /v1/entities/{eid} [delete]
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	if err := h.ws.DeleteEntity(c.Request.Context(), dto.BindEntityID(c)); err != nil {
		respondError(c, "failed to delete entity", err)
		return
	}
	dto.NoContent(c)
}

// ExportEntities 导出 YAML
// @Summary 导出故事圣经
// @Tags Entities
// @Produce application/yaml
// @Router /v1/entities/export [get]
func (h *EntityHandler) ExportEntities(c *gin.Context) {
	data, err := h.ws.ExportEntitiesYAML(c.Request.Context())
	if err != nil {
		respondError(c, "failed to export entities", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="story_bible.yaml"`)
	c.Data(http.StatusOK, "application/yaml", data)
}

// ImportEntities 导入 YAML，replace=true 时替换现有圣经
// @Summary 导入故事圣经
// @Tags Entities
// @Accept application/yaml
// @Produce json
// @Param replace query bool false "替换现有条目"
// @Success 200 {object} dto.Response[dto.ImportEntitiesResponse]
// @Router /v1/entities/import [post]
func (h *EntityHandler) ImportEntities(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBibleImportBytes+1))
	if err != nil {
		dto.BadRequest(c, "failed to read request body")
		return
	}
	if len(data) > maxBibleImportBytes {
		dto.Error(c, http.StatusRequestEntityTooLarge, "story bible is too large")
		return
	}
	replace := dto.BindReplace(c)
	n, err := h.ws.ImportEntitiesYAML(c.Request.Context(), data, replace)
	if err != nil {
		respondError(c, "failed to import entities", err)
		return
	}
	dto.Success(c, &dto.ImportEntitiesResponse{Imported: n, Replaced: replace})
}
