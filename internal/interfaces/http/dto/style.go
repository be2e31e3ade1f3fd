// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"hydraskript-api/internal/domain/entity"
)

// SaveStyleRequest 保存风格档案，id 为空时新建
type SaveStyleRequest struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name" binding:"required,max=255"`
	Tone          string   `json:"tone" binding:"max=1000"`
	VoiceStrength int      `json:"voiceStrength"`
	Avoid         []string `json:"avoid,omitempty"`
	Examples      []string `json:"examples,omitempty"`
}

// ToEntity 转换为风格档案
func (r *SaveStyleRequest) ToEntity() *entity.StyleProfile {
	return &entity.StyleProfile{
		ID:            r.ID,
		Name:          r.Name,
		Tone:          r.Tone,
		VoiceStrength: r.VoiceStrength,
		Avoid:         r.Avoid,
		Examples:      r.Examples,
	}
}

// StyleResponse 风格档案响应
type StyleResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tone          string    `json:"tone"`
	VoiceStrength int       `json:"voiceStrength"`
	Avoid         []string  `json:"avoid"`
	Examples      []string  `json:"examples,omitempty"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToStyleResponse 转换风格响应
func ToStyleResponse(s *entity.StyleProfile, activeID string) *StyleResponse {
	if s == nil {
		return nil
	}
	avoid := s.Avoid
	if avoid == nil {
		avoid = []string{}
	}
	return &StyleResponse{
		ID:            s.ID,
		Name:          s.Name,
		Tone:          s.Tone,
		VoiceStrength: s.VoiceStrength,
		Avoid:         avoid,
		Examples:      s.Examples,
		Active:        s.ID == activeID,
		UpdatedAt:     s.UpdatedAt,
	}
}

// StyleListResponse 风格列表
type StyleListResponse struct {
	Styles   []*StyleResponse `json:"styles"`
	ActiveID string           `json:"active_id"`
}
