// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
)

// Stage 创作流程阶段
type Stage string

const (
	StageGenesis     Stage = "genesis"
	StageOutlineLock Stage = "outline_lock"
	StageWorkspace   Stage = "workspace"
)

// GenerationMode 章节生成档位，只影响生成预算，不影响结构
type GenerationMode string

const (
	ModeSpeed    GenerationMode = "speed"
	ModeBalanced GenerationMode = "balanced"
	ModePremium  GenerationMode = "premium"
)

// ParseGenerationMode 解析生成档位，空值视为 balanced
func ParseGenerationMode(s string) (GenerationMode, error) {
	switch GenerationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBalanced:
		return ModeBalanced, nil
	case ModeSpeed:
		return ModeSpeed, nil
	case ModePremium:
		return ModePremium, nil
	default:
		return "", fmt.Errorf("unknown generation mode %q", s)
	}
}

// GenesisInput 创世表单输入，返回上一步时原样保留
type GenesisInput struct {
	Topic       string      `json:"topic"`
	Genre       string      `json:"genre"`
	Audience    string      `json:"audience"`
	Goals       string      `json:"goals,omitempty"`
	Length      string      `json:"length"`
	ProjectType ProjectType `json:"project_type"`
}

// Session 工作区会话状态
type Session struct {
	Stage            Stage        `json:"stage"`
	Draft            GenesisInput `json:"draft"`
	CurrentProjectID string       `json:"current_project_id,omitempty"`
	ActiveChapterID  string       `json:"active_chapter_id,omitempty"`
	ActiveStyleID    string       `json:"active_style_id"`
}

// NewSession 初始会话
func NewSession() *Session {
	return &Session{
		Stage:         StageGenesis,
		Draft:         GenesisInput{Length: "Medium (10 chapters)", ProjectType: ProjectTypeStandard},
		ActiveStyleID: DefaultStyleID,
	}
}

// Clone 拷贝
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
