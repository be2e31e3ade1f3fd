// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// DefaultStyleID 内置默认风格 ID
const DefaultStyleID = "default"

// StyleProfile 写作风格档案
type StyleProfile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tone          string    `json:"tone"`
	VoiceStrength int       `json:"voiceStrength"`
	Avoid         []string  `json:"avoid"`
	Examples      []string  `json:"examples,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultStyleProfile 内置默认风格
func DefaultStyleProfile() *StyleProfile {
	return &StyleProfile{
		ID:            DefaultStyleID,
		Name:          "Hydra Default",
		Tone:          "Professional yet engaging",
		VoiceStrength: 80,
		Avoid:         []string{"passive voice", "clichés", "overly flowery language"},
		UpdatedAt:     time.Now(),
	}
}

// Normalize 收敛取值：力度限定在 0..100，avoid 去空去重并保持顺序
func (s *StyleProfile) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Tone = strings.TrimSpace(s.Tone)
	switch {
	case s.VoiceStrength < 0:
		s.VoiceStrength = 0
	case s.VoiceStrength > 100:
		s.VoiceStrength = 100
	}

	seen := make(map[string]struct{}, len(s.Avoid))
	avoid := make([]string, 0, len(s.Avoid))
	for _, a := range s.Avoid {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		avoid = append(avoid, a)
	}
	s.Avoid = avoid
}

// Keywords 插图风格关键词：语气在前，随后是全部 avoid 项
func (s *StyleProfile) Keywords() []string {
	out := make([]string, 0, len(s.Avoid)+1)
	if s.Tone != "" {
		out = append(out, s.Tone)
	}
	return append(out, s.Avoid...)
}

// Clone 深拷贝
func (s *StyleProfile) Clone() *StyleProfile {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Avoid = append([]string(nil), s.Avoid...)
	cp.Examples = append([]string(nil), s.Examples...)
	return &cp
}
