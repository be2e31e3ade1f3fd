// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/domain/entity"
)

// GenerateChapterRequest 生成章节请求
type GenerateChapterRequest struct {
	Mode string `json:"mode,omitempty"`
}

// SelectionDTO 改写选区，start/end 为 rune 偏移
type SelectionDTO struct {
	Text  string `json:"text" binding:"required"`
	Start *int   `json:"start,omitempty"`
	End   *int   `json:"end,omitempty"`
}

// RewriteRequest 改写请求
type RewriteRequest struct {
	Selection SelectionDTO `json:"selection" binding:"required"`
	Command   string       `json:"command,omitempty" binding:"max=2000"`
}

// ToSelection 转换为流程选区
func (r *RewriteRequest) ToSelection() pipeline.Selection {
	return pipeline.Selection{
		Text:  r.Selection.Text,
		Start: r.Selection.Start,
		End:   r.Selection.End,
	}
}

// UpdateContentRequest 手动编辑正文
type UpdateContentRequest struct {
	Content *string `json:"content" binding:"required"`
}

// ImagePromptResponse 插图提示词
type ImagePromptResponse struct {
	Prompt            string   `json:"prompt"`
	NegativePrompt    []string `json:"negative_prompt"`
	AspectRatio       string   `json:"aspect_ratio"`
	SDXLSeed          *int64   `json:"sdxl_seed,omitempty"`
	GeneratedImageURL string   `json:"generated_image_url,omitempty"`
}

// ChapterResponse 章节响应
type ChapterResponse struct {
	ID                 string               `json:"id"`
	Number             int                  `json:"number"`
	Title              string               `json:"title"`
	Summary            string               `json:"summary"`
	KeyPoints          []string             `json:"key_points"`
	Content            string               `json:"content,omitempty"`
	Status             string               `json:"status"`
	WordCount          int                  `json:"word_count"`
	ImageSuggestion    *ImagePromptResponse `json:"image_suggestion,omitempty"`
	RecapForNext       string               `json:"recap_for_next,omitempty"`
	EntitiesIntroduced []string             `json:"entities_introduced,omitempty"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// ToChapterResponse 转换章节响应
func ToChapterResponse(ch *entity.Chapter) *ChapterResponse {
	if ch == nil {
		return nil
	}
	resp := &ChapterResponse{
		ID:                 ch.ID,
		Number:             ch.Number,
		Title:              ch.Title,
		Summary:            ch.Summary,
		KeyPoints:          ch.KeyPoints,
		Content:            ch.Content,
		Status:             string(ch.Status),
		WordCount:          ch.WordCount,
		RecapForNext:       ch.RecapForNext,
		EntitiesIntroduced: ch.EntitiesIntroduced,
		UpdatedAt:          ch.UpdatedAt,
	}
	if resp.KeyPoints == nil {
		resp.KeyPoints = []string{}
	}
	if s := ch.ImageSuggestion; s != nil {
		resp.ImageSuggestion = &ImagePromptResponse{
			Prompt:            s.Prompt,
			NegativePrompt:    s.NegativePrompt,
			AspectRatio:       s.AspectRatio,
			SDXLSeed:          s.SDXLSeed,
			GeneratedImageURL: s.GeneratedImageURL,
		}
	}
	return resp
}

// GenerateChapterResponse 生成结果。插图提示词步骤失败时 image_error 非空，正文仍然有效
type GenerateChapterResponse struct {
	Chapter    *ChapterResponse `json:"chapter"`
	ImageError *ErrorDetail     `json:"image_error,omitempty"`
}

// RewriteResponse 改写响应
type RewriteResponse struct {
	Chapter        *ChapterResponse `json:"chapter"`
	RewrittenText  string           `json:"rewritten_text"`
	RationaleShort string           `json:"rationale_short"`
	Applied        bool             `json:"applied"`
}

// ToRewriteResponse 转换改写响应
func ToRewriteResponse(o *pipeline.RewriteOutcome) *RewriteResponse {
	return &RewriteResponse{
		Chapter:        ToChapterResponse(o.Chapter),
		RewrittenText:  o.RewrittenText,
		RationaleShort: o.Rationale,
		Applied:        o.Applied,
	}
}
