// Package prompt 管理生成提示词模板与项目类型框架表
package prompt

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，对应 templates 下的一组 system/user 文件
type PromptID string

const (
	PromptOutlineStandardV1     PromptID = "outline_standard_v1"
	PromptOutlineKidsV1         PromptID = "outline_kids_v1"
	PromptOutlineColoringV1     PromptID = "outline_coloring_v1"
	PromptChapterStandardV1     PromptID = "chapter_standard_v1"
	PromptChapterKidsV1         PromptID = "chapter_kids_v1"
	PromptChapterColoringV1     PromptID = "chapter_coloring_v1"
	PromptRewriteV1             PromptID = "rewrite_v1"
	PromptImagePromptStandardV1 PromptID = "image_prompt_standard_v1"
	PromptImagePromptKidsV1     PromptID = "image_prompt_kids_v1"
	PromptImagePromptColoringV1 PromptID = "image_prompt_coloring_v1"
)

// 所有模板共用的用户消息
const userVarsFile = "templates/user_vars_v1.user.txt"

// 模板变量名
const (
	VarUserVars      = "user_vars"
	VarStyleKeywords = "style_keywords"
)

// Rendered 渲染后的提示词
type Rendered struct {
	System string
	User   string
}

// Registry 模板注册表，模板首次使用时解析并缓存
type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry 创建模板注册表
func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

// ChatTemplate 获取模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, err := resolveSystemFile(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userVarsFile)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

// Format 渲染为 eino 消息
func (r *Registry) Format(ctx context.Context, id PromptID, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := r.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format prompt %s: %w", id, err)
	}
	return msgs, nil
}

// Render 渲染为 system/user 文本，供不使用 eino 消息的后端调用
func (r *Registry) Render(ctx context.Context, id PromptID, vars map[string]any) (*Rendered, error) {
	msgs, err := r.Format(ctx, id, vars)
	if err != nil {
		return nil, err
	}
	out := &Rendered{}
	for _, m := range msgs {
		switch m.Role {
		case schema.System:
			out.System = m.Content
		case schema.User:
			out.User = m.Content
		}
	}
	return out, nil
}

func resolveSystemFile(id PromptID) (string, error) {
	switch id {
	case PromptOutlineStandardV1, PromptOutlineKidsV1, PromptOutlineColoringV1,
		PromptChapterStandardV1, PromptChapterKidsV1, PromptChapterColoringV1,
		PromptRewriteV1,
		PromptImagePromptStandardV1, PromptImagePromptKidsV1, PromptImagePromptColoringV1:
		return "templates/" + string(id) + ".system.txt", nil
	default:
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
