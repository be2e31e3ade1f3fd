// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft      ChapterStatus = "draft"
	ChapterStatusGenerating ChapterStatus = "generating"
	ChapterStatusGenerated  ChapterStatus = "generated"
	ChapterStatusApproved   ChapterStatus = "approved"
)

// ImagePrompt 插图提示词及其渲染结果
type ImagePrompt struct {
	Prompt            string   `json:"prompt"`
	NegativePrompt    []string `json:"negative_prompt"`
	AspectRatio       string   `json:"aspect_ratio"`
	SDXLSeed          *int64   `json:"sdxl_seed,omitempty"`
	GeneratedImageURL string   `json:"generated_image_url,omitempty"`
}

// Clone 深拷贝
func (p *ImagePrompt) Clone() *ImagePrompt {
	if p == nil {
		return nil
	}
	cp := *p
	cp.NegativePrompt = append([]string(nil), p.NegativePrompt...)
	if p.SDXLSeed != nil {
		seed := *p.SDXLSeed
		cp.SDXLSeed = &seed
	}
	return &cp
}

// Chapter 章节实体（儿童绘本/涂色书中表示一页）
type Chapter struct {
	ID                 string        `json:"id"`
	Number             int           `json:"number"`
	Title              string        `json:"title"`
	Summary            string        `json:"summary"`
	KeyPoints          []string      `json:"key_points"`
	Content            string        `json:"content,omitempty"`
	Status             ChapterStatus `json:"status"`
	ImageSuggestion    *ImagePrompt  `json:"image_suggestion,omitempty"`
	RecapForNext       string        `json:"recap_for_next,omitempty"`
	EntitiesIntroduced []string      `json:"entities_introduced,omitempty"`
	WordCount          int           `json:"word_count"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// NewChapter 创建草稿章节
func NewChapter(id string, number int, title, summary string, keyPoints []string) *Chapter {
	return &Chapter{
		ID:        id,
		Number:    number,
		Title:     title,
		Summary:   summary,
		KeyPoints: append([]string(nil), keyPoints...),
		Status:    ChapterStatusDraft,
		UpdatedAt: time.Now(),
	}
}

// HasContent 是否已有正文
func (c *Chapter) HasContent() bool {
	return strings.TrimSpace(c.Content) != ""
}

// IsGenerated 是否处于已生成或已审核状态
func (c *Chapter) IsGenerated() bool {
	return c.Status == ChapterStatusGenerated || c.Status == ChapterStatusApproved
}

// BeginGeneration 进入生成中状态
func (c *Chapter) BeginGeneration() error {
	if c.Status == ChapterStatusGenerating {
		return fmt.Errorf("chapter %d is already generating", c.Number)
	}
	c.Status = ChapterStatusGenerating
	c.UpdatedAt = time.Now()
	return nil
}

// CompleteGeneration 写入生成结果并进入已生成状态
func (c *Chapter) CompleteGeneration(content, recap string, introduced []string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("chapter %d: generated content is empty", c.Number)
	}
	c.SetContent(content)
	c.RecapForNext = recap
	c.EntitiesIntroduced = append([]string(nil), introduced...)
	c.Status = ChapterStatusGenerated
	return nil
}

// RevertToDraft 生成失败时回退为草稿，正文保持不变
func (c *Chapter) RevertToDraft() {
	c.Status = ChapterStatusDraft
	c.UpdatedAt = time.Now()
}

// Approve 审核通过，仅允许从已生成状态进入
func (c *Chapter) Approve() error {
	if c.Status != ChapterStatusGenerated {
		return fmt.Errorf("chapter %d: only generated chapters can be approved (status=%s)", c.Number, c.Status)
	}
	c.Status = ChapterStatusApproved
	c.UpdatedAt = time.Now()
	return nil
}

// SetContent 设置正文并更新字数
// 清空正文时已生成状态回退为草稿，保证 generated 必有正文
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = len(strings.Fields(content))
	if !c.HasContent() && c.IsGenerated() {
		c.Status = ChapterStatusDraft
	}
	c.UpdatedAt = time.Now()
}

// SetImageSuggestion 覆盖插图提示词，旧的渲染结果一并丢弃
func (c *Chapter) SetImageSuggestion(p *ImagePrompt) {
	cp := p.Clone()
	if cp != nil {
		cp.GeneratedImageURL = ""
	}
	c.ImageSuggestion = cp
	c.UpdatedAt = time.Now()
}

// AttachRenderedImage 将渲染结果合并进现有插图提示词
func (c *Chapter) AttachRenderedImage(url string) error {
	if c.ImageSuggestion == nil {
		return fmt.Errorf("chapter %d has no image suggestion", c.Number)
	}
	c.ImageSuggestion.GeneratedImageURL = url
	c.UpdatedAt = time.Now()
	return nil
}

// ContentRuneLen 正文的 rune 长度
func (c *Chapter) ContentRuneLen() int {
	return utf8.RuneCountInString(c.Content)
}

// Clone 深拷贝
func (c *Chapter) Clone() *Chapter {
	if c == nil {
		return nil
	}
	cp := *c
	cp.KeyPoints = append([]string(nil), c.KeyPoints...)
	cp.EntitiesIntroduced = append([]string(nil), c.EntitiesIntroduced...)
	cp.ImageSuggestion = c.ImageSuggestion.Clone()
	return &cp
}
