// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
	"time"
)

// ProjectType 项目类型，只影响提示词框架，不影响流程
type ProjectType string

const (
	ProjectTypeStandard ProjectType = "standard"
	ProjectTypeKids     ProjectType = "kids"
	ProjectTypeColoring ProjectType = "coloring"
)

// ParseProjectType 解析项目类型，空值视为 standard
func ParseProjectType(s string) (ProjectType, error) {
	switch ProjectType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProjectTypeStandard:
		return ProjectTypeStandard, nil
	case ProjectTypeKids:
		return ProjectTypeKids, nil
	case ProjectTypeColoring:
		return ProjectTypeColoring, nil
	default:
		return "", fmt.Errorf("unknown project type %q", s)
	}
}

// IsIllustrated 绘本与涂色书在章节生成后自动生成插图提示词
func (t ProjectType) IsIllustrated() bool {
	return t == ProjectTypeKids || t == ProjectTypeColoring
}

// BookProject 书籍项目
type BookProject struct {
	ID              string         `json:"id"`
	Type            ProjectType    `json:"type"`
	Title           string         `json:"title"`
	Topic           string         `json:"topic"`
	Audience        string         `json:"audience"`
	Genre           string         `json:"genre"`
	Goals           string         `json:"goals,omitempty"`
	Length          string         `json:"length,omitempty"`
	Synopsis        string         `json:"synopsis"`
	Chapters        []*Chapter     `json:"chapters"`
	StyleProfileID  string         `json:"styleProfileId,omitempty"`
	Entities        []*StoryEntity `json:"entities"`
	PendingEntities []*StoryEntity `json:"pending_entities,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ChapterByID 按 ID 查找章节
func (p *BookProject) ChapterByID(id string) *Chapter {
	for _, ch := range p.Chapters {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// ChapterByNumber 按序号查找章节
func (p *BookProject) ChapterByNumber(n int) *Chapter {
	for _, ch := range p.Chapters {
		if ch.Number == n {
			return ch
		}
	}
	return nil
}

// Progress 已生成章节百分比 (0..100)
func (p *BookProject) Progress() int {
	if len(p.Chapters) == 0 {
		return 0
	}
	done := 0
	for _, ch := range p.Chapters {
		if ch.IsGenerated() {
			done++
		}
	}
	return done * 100 / len(p.Chapters)
}

// EntityByName 按名称查找快照中的条目（大小写不敏感）
func (p *BookProject) EntityByName(name string) *StoryEntity {
	for _, e := range p.Entities {
		if strings.EqualFold(e.Name, name) {
			return e
		}
	}
	return nil
}

// ValidateNumbering 校验章节序号为 1..N 连续且唯一
func (p *BookProject) ValidateNumbering() error {
	seen := make(map[int]bool, len(p.Chapters))
	for _, ch := range p.Chapters {
		if ch.Number < 1 || ch.Number > len(p.Chapters) {
			return fmt.Errorf("chapter number %d out of range 1..%d", ch.Number, len(p.Chapters))
		}
		if seen[ch.Number] {
			return fmt.Errorf("duplicate chapter number %d", ch.Number)
		}
		seen[ch.Number] = true
	}
	return nil
}

// Touch 刷新更新时间
func (p *BookProject) Touch() {
	p.UpdatedAt = time.Now()
}

// Clone 深拷贝，返回给调用方的项目不与内部状态共享内存
func (p *BookProject) Clone() *BookProject {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Chapters = make([]*Chapter, 0, len(p.Chapters))
	for _, ch := range p.Chapters {
		cp.Chapters = append(cp.Chapters, ch.Clone())
	}
	cp.Entities = CloneEntities(p.Entities)
	cp.PendingEntities = CloneEntities(p.PendingEntities)
	return &cp
}

// ProjectSummary 项目列表摘要
type ProjectSummary struct {
	ID           string      `json:"id"`
	Type         ProjectType `json:"type"`
	Title        string      `json:"title"`
	Genre        string      `json:"genre"`
	ChapterCount int         `json:"chapter_count"`
	Progress     int         `json:"progress"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Summary 生成列表摘要
func (p *BookProject) Summary() ProjectSummary {
	return ProjectSummary{
		ID:           p.ID,
		Type:         p.Type,
		Title:        p.Title,
		Genre:        p.Genre,
		ChapterCount: len(p.Chapters),
		Progress:     p.Progress(),
		UpdatedAt:    p.UpdatedAt,
	}
}
