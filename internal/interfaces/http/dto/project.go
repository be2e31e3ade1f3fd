// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"hydraskript-api/internal/domain/entity"
)

// GenesisRequest 创世表单
type GenesisRequest struct {
	Topic       string `json:"topic" binding:"required,max=2000"`
	Genre       string `json:"genre" binding:"max=255"`
	Audience    string `json:"audience" binding:"max=255"`
	Goals       string `json:"goals,omitempty" binding:"max=5000"`
	Length      string `json:"length" binding:"max=255"`
	ProjectType string `json:"project_type,omitempty"`
}

// ToInput 转换为创世输入
func (r *GenesisRequest) ToInput() entity.GenesisInput {
	return entity.GenesisInput{
		Topic:       r.Topic,
		Genre:       r.Genre,
		Audience:    r.Audience,
		Goals:       r.Goals,
		Length:      r.Length,
		ProjectType: entity.ProjectType(r.ProjectType),
	}
}

// SessionResponse 会话响应
type SessionResponse struct {
	Stage            string              `json:"stage"`
	Draft            entity.GenesisInput `json:"draft"`
	CurrentProjectID string              `json:"current_project_id,omitempty"`
	ActiveChapterID  string              `json:"active_chapter_id,omitempty"`
	ActiveStyleID    string              `json:"active_style_id"`
	MergePolicy      string              `json:"entity_merge_policy"`
}

// ToSessionResponse 转换会话响应
func ToSessionResponse(s *entity.Session, mergePolicy string) *SessionResponse {
	return &SessionResponse{
		Stage:            string(s.Stage),
		Draft:            s.Draft,
		CurrentProjectID: s.CurrentProjectID,
		ActiveChapterID:  s.ActiveChapterID,
		ActiveStyleID:    s.ActiveStyleID,
		MergePolicy:      mergePolicy,
	}
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"`
	Title           string             `json:"title"`
	Topic           string             `json:"topic"`
	Audience        string             `json:"audience"`
	Genre           string             `json:"genre"`
	Goals           string             `json:"goals,omitempty"`
	Length          string             `json:"length,omitempty"`
	Synopsis        string             `json:"synopsis"`
	StyleProfileID  string             `json:"styleProfileId,omitempty"`
	Progress        int                `json:"progress"`
	Chapters        []*ChapterResponse `json:"chapters"`
	Entities        []*EntityResponse  `json:"entities"`
	PendingEntities []*EntityResponse  `json:"pending_entities"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ToProjectResponse 转换项目响应
func ToProjectResponse(p *entity.BookProject) *ProjectResponse {
	if p == nil {
		return nil
	}
	chapters := make([]*ChapterResponse, 0, len(p.Chapters))
	for _, ch := range p.Chapters {
		chapters = append(chapters, ToChapterResponse(ch))
	}
	return &ProjectResponse{
		ID:              p.ID,
		Type:            string(p.Type),
		Title:           p.Title,
		Topic:           p.Topic,
		Audience:        p.Audience,
		Genre:           p.Genre,
		Goals:           p.Goals,
		Length:          p.Length,
		Synopsis:        p.Synopsis,
		StyleProfileID:  p.StyleProfileID,
		Progress:        p.Progress(),
		Chapters:        chapters,
		Entities:        ToEntityResponses(p.Entities),
		PendingEntities: ToEntityResponses(p.PendingEntities),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []entity.ProjectSummary `json:"projects"`
}

// PendingEntitiesRequest 批准或忽略待确认实体；names 为空表示全部
type PendingEntitiesRequest struct {
	Names []string `json:"names,omitempty"`
}

// PendingEntitiesResponse 处理结果
type PendingEntitiesResponse struct {
	Names []string `json:"names"`
}
