// Package model 定义生成工作流的输入输出结构
package model

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// BibleEntry 发送给模型的故事圣经条目，不包含 ID
type BibleEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
}

// StyleVars 发送给模型的风格档案
type StyleVars struct {
	Name          string   `json:"name"`
	Tone          string   `json:"tone"`
	VoiceStrength int      `json:"voiceStrength"`
	Avoid         []string `json:"avoid"`
	Examples      []string `json:"examples,omitempty"`
}

// OutlineInput 大纲生成输入
type OutlineInput struct {
	Topic       string
	Genre       string
	Audience    string
	Length      string
	Goals       string
	Style       StyleVars
	Bible       []BibleEntry
	ProjectType string
}

// OutlineChapter 大纲中的单章
type OutlineChapter struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// OutlineResult 大纲生成结果
type OutlineResult struct {
	Title               string           `json:"title"`
	Synopsis            string           `json:"synopsis"`
	Chapters            []OutlineChapter `json:"chapters"`
	NotesForConsistency []string         `json:"notes_for_consistency,omitempty"`
}

// Validate 校验必填内容
func (r *OutlineResult) Validate() error {
	var issues []string
	if strings.TrimSpace(r.Title) == "" {
		issues = append(issues, "title is empty")
	}
	if len(r.Chapters) == 0 {
		issues = append(issues, "chapters is empty")
	}
	// 序号必须恰好覆盖 1..N，顺序不限
	seen := make(map[int]int, len(r.Chapters))
	for i, ch := range r.Chapters {
		switch {
		case ch.Number <= 0 || ch.Number > len(r.Chapters):
			issues = append(issues, fmt.Sprintf("chapters[%d].number %d is outside 1..%d", i, ch.Number, len(r.Chapters)))
		default:
			if prev, dup := seen[ch.Number]; dup {
				issues = append(issues, fmt.Sprintf("chapters[%d].number %d duplicates chapters[%d]", i, ch.Number, prev))
			} else {
				seen[ch.Number] = i
			}
		}
		if strings.TrimSpace(ch.Title) == "" {
			issues = append(issues, fmt.Sprintf("chapters[%d].title is empty", i))
		}
	}
	return newValidationError(issues)
}

// ChapterRef 章节大纲信息
type ChapterRef struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// ProjectContext 锁定的大纲上下文
type ProjectContext struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}

// ChapterDraftInput 章节正文生成输入
type ChapterDraftInput struct {
	Chapter              ChapterRef
	Project              ProjectContext
	Bible                []BibleEntry
	Style                StyleVars
	Mode                 string
	ProjectType          string
	PreviousChapterRecap string
}

// ChapterDraftResult 章节正文生成结果
type ChapterDraftResult struct {
	ChapterNumber       int      `json:"chapter_number,omitempty"`
	Title               string   `json:"title,omitempty"`
	ContentMarkdown     string   `json:"content_markdown"`
	RecapForNextChapter string   `json:"recap_for_next_chapter"`
	EntitiesIntroduced  []string `json:"entities_introduced,omitempty"`
	SensitiveFlags      []string `json:"sensitive_flags,omitempty"`
}

// Validate 校验必填内容
func (r *ChapterDraftResult) Validate() error {
	var issues []string
	if strings.TrimSpace(r.ContentMarkdown) == "" {
		issues = append(issues, "content_markdown is empty")
	}
	return newValidationError(issues)
}

// RewriteInput 选区改写输入
type RewriteInput struct {
	SelectedText string
	Command      string
	Style        StyleVars
	Bible        []BibleEntry
}

// RewriteResult 选区改写结果
type RewriteResult struct {
	RewrittenText  string `json:"rewritten_text"`
	RationaleShort string `json:"rationale_short"`
}

// Validate 校验必填内容
func (r *RewriteResult) Validate() error {
	var issues []string
	if strings.TrimSpace(r.RewrittenText) == "" {
		issues = append(issues, "rewritten_text is empty")
	}
	return newValidationError(issues)
}

// ImagePromptInput 插图提示词输入
type ImagePromptInput struct {
	ChapterSummary string
	StyleKeywords  []string
	ProjectType    string
}

// SDXLParams SDXL 渲染参数
type SDXLParams struct {
	Seed     *int64   `json:"seed,omitempty"`
	CFGScale *float64 `json:"cfg_scale,omitempty"`
	Steps    *int     `json:"steps,omitempty"`
}

// ImagePromptResult 插图提示词结果
type ImagePromptResult struct {
	ImagePrompt          string      `json:"image_prompt"`
	NegativePrompts      []string    `json:"negative_prompts,omitempty"`
	SuggestedAspectRatio string      `json:"suggested_aspect_ratio"`
	SDXL                 *SDXLParams `json:"sdxl,omitempty"`
}

// Validate 校验必填内容
func (r *ImagePromptResult) Validate() error {
	var issues []string
	if strings.TrimSpace(r.ImagePrompt) == "" {
		issues = append(issues, "image_prompt is empty")
	}
	if strings.TrimSpace(r.SuggestedAspectRatio) == "" {
		issues = append(issues, "suggested_aspect_ratio is empty")
	}
	return newValidationError(issues)
}

// RenderedImage 渲染后的图片
type RenderedImage struct {
	Data     []byte
	MIMEType string
}

// DataURL 以 data URL 内联图片，前端可直接展示
func (i *RenderedImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ValidationError 结构化输出校验错误
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "schema validation failed"
	}
	return "schema validation failed: " + strings.Join(e.Issues, "; ")
}

func newValidationError(issues []string) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
