package prompt

import (
	"hydraskript-api/internal/domain/entity"
)

// FramingPolicy 项目类型对应的提示词框架。
// 项目类型只改变措辞，所有类型共享同一套流程与响应结构。
type FramingPolicy struct {
	ProjectType entity.ProjectType
	// Unit 章节在该类型下的称呼
	Unit        string
	Outline     PromptID
	Chapter     PromptID
	ImagePrompt PromptID
	// ThemeInInstruction 为 true 时风格关键词以逗号拼接写入 system 指令
	ThemeInInstruction bool
}

var framingTable = map[entity.ProjectType]FramingPolicy{
	entity.ProjectTypeStandard: {
		ProjectType: entity.ProjectTypeStandard,
		Unit:        "chapter",
		Outline:     PromptOutlineStandardV1,
		Chapter:     PromptChapterStandardV1,
		ImagePrompt: PromptImagePromptStandardV1,
	},
	entity.ProjectTypeKids: {
		ProjectType: entity.ProjectTypeKids,
		Unit:        "page",
		Outline:     PromptOutlineKidsV1,
		Chapter:     PromptChapterKidsV1,
		ImagePrompt: PromptImagePromptKidsV1,
	},
	entity.ProjectTypeColoring: {
		ProjectType:        entity.ProjectTypeColoring,
		Unit:               "page",
		Outline:            PromptOutlineColoringV1,
		Chapter:            PromptChapterColoringV1,
		ImagePrompt:        PromptImagePromptColoringV1,
		ThemeInInstruction: true,
	},
}

// PolicyFor 返回项目类型的框架，未知类型按 standard 处理
func PolicyFor(t entity.ProjectType) FramingPolicy {
	if p, ok := framingTable[t]; ok {
		return p
	}
	return framingTable[entity.ProjectTypeStandard]
}
