// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"hydraskript-api/internal/domain/entity"
)

// CreateEntityRequest 新增故事圣经条目
type CreateEntityRequest struct {
	Type        string `json:"type" binding:"required"`
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=10000"`
}

// EntityResponse 条目响应
type EntityResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToEntityResponse 转换条目响应
func ToEntityResponse(e *entity.StoryEntity) *EntityResponse {
	if e == nil {
		return nil
	}
	return &EntityResponse{
		ID:          e.ID,
		Type:        string(e.Type),
		Name:        e.Name,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToEntityResponses 批量转换，空列表返回 []
func ToEntityResponses(list []*entity.StoryEntity) []*EntityResponse {
	out := make([]*EntityResponse, 0, len(list))
	for _, e := range list {
		out = append(out, ToEntityResponse(e))
	}
	return out
}

// EntityListResponse 条目列表响应
type EntityListResponse struct {
	Entities []*EntityResponse `json:"entities"`
	Types    []string          `json:"types"`
}

// ToEntityListResponse 转换条目列表，附带全部类型供页签使用
func ToEntityListResponse(list []*entity.StoryEntity) *EntityListResponse {
	types := make([]string, 0, len(entity.EntityTypes))
	for _, t := range entity.EntityTypes {
		types = append(types, string(t))
	}
	return &EntityListResponse{
		Entities: ToEntityResponses(list),
		Types:    types,
	}
}

// ImportEntitiesResponse 导入结果
type ImportEntitiesResponse struct {
	Imported int  `json:"imported"`
	Replaced bool `json:"replaced"`
}
