// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// StoryEntityType 故事圣经条目类型
type StoryEntityType string

const (
	EntityTypeCharacter StoryEntityType = "Character"
	EntityTypeLocation  StoryEntityType = "Location"
	EntityTypeRule      StoryEntityType = "Rule"
	EntityTypeTerm      StoryEntityType = "Term"
	EntityTypeLore      StoryEntityType = "Lore"
)

// EntityTypes 全部条目类型，按界面页签顺序
var EntityTypes = []StoryEntityType{
	EntityTypeCharacter,
	EntityTypeLocation,
	EntityTypeRule,
	EntityTypeTerm,
	EntityTypeLore,
}

// ParseStoryEntityType 解析条目类型（大小写不敏感）
func ParseStoryEntityType(s string) (StoryEntityType, bool) {
	for _, t := range EntityTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// StoryEntity 故事圣经条目（角色/地点/规则/术语/设定）
type StoryEntity struct {
	ID          string          `json:"id" yaml:"id,omitempty"`
	Type        StoryEntityType `json:"type" yaml:"type"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"-"`
}

// NewStoryEntity 创建新条目
func NewStoryEntity(id string, entityType StoryEntityType, name, description string) *StoryEntity {
	now := time.Now()
	return &StoryEntity{
		ID:          id,
		Type:        entityType,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone 深拷贝
func (e *StoryEntity) Clone() *StoryEntity {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// CloneEntities 深拷贝条目列表，项目快照与全局圣经互不影响
func CloneEntities(in []*StoryEntity) []*StoryEntity {
	out := make([]*StoryEntity, 0, len(in))
	for _, e := range in {
		if e != nil {
			out = append(out, e.Clone())
		}
	}
	return out
}

// DefaultEntities 初始故事圣经
func DefaultEntities() []*StoryEntity {
	return []*StoryEntity{
		NewStoryEntity("1", EntityTypeCharacter, "Protagonist", "The main character of the story."),
		NewStoryEntity("2", EntityTypeLocation, "Central City", "A bustling metropolis where the story begins."),
	}
}
