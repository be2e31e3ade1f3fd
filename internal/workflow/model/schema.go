package model

// SchemaType 结构化输出字段类型
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema 与后端无关的响应结构描述，由各后端转换为自身格式
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// JSONSchema 转换为 OpenAI response_format 使用的 JSON Schema
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	return out
}

func str() *Schema { return &Schema{Type: TypeString} }

func integer() *Schema { return &Schema{Type: TypeInteger} }

func number() *Schema { return &Schema{Type: TypeNumber} }

func arrayOf(s *Schema) *Schema { return &Schema{Type: TypeArray, Items: s} }

// OutlineSchema 大纲响应结构
func OutlineSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"title":    str(),
			"synopsis": str(),
			"chapters": arrayOf(&Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"number":     integer(),
					"title":      str(),
					"summary":    str(),
					"key_points": arrayOf(str()),
				},
				Required: []string{"number", "title", "summary", "key_points"},
			}),
			"notes_for_consistency": arrayOf(str()),
		},
		Required: []string{"title", "synopsis", "chapters"},
	}
}

// ChapterDraftSchema 章节正文响应结构
func ChapterDraftSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"chapter_number":         integer(),
			"title":                  str(),
			"content_markdown":       str(),
			"recap_for_next_chapter": str(),
			"entities_introduced":    arrayOf(str()),
			"sensitive_flags":        arrayOf(str()),
		},
		Required: []string{"content_markdown", "recap_for_next_chapter"},
	}
}

// RewriteSchema 选区改写响应结构
func RewriteSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"rewritten_text":  str(),
			"rationale_short": str(),
		},
		Required: []string{"rewritten_text", "rationale_short"},
	}
}

// ImagePromptSchema 插图提示词响应结构
func ImagePromptSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"image_prompt":           str(),
			"negative_prompts":       arrayOf(str()),
			"suggested_aspect_ratio": str(),
			"sdxl": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"seed":      integer(),
					"cfg_scale": number(),
					"steps":     integer(),
				},
			},
		},
		Required: []string{"image_prompt", "suggested_aspect_ratio"},
	}
}
