package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	wfmodel "hydraskript-api/internal/workflow/model"
)

// ErrEmptyOutput 模型没有返回任何内容
var ErrEmptyOutput = errors.New("model returned no content")

// Validatable 可自校验的结构化结果
type Validatable interface {
	Validate() error
}

// DecodeStructured 将模型输出解码为结构化结果。
// 空输出返回 ErrEmptyOutput；非 JSON、缺少必填字段、类型不符或内容校验失败均返回 *wfmodel.ValidationError。
func DecodeStructured(raw string, dst Validatable, schema *wfmodel.Schema) error {
	text := ExtractJSONObject(raw)
	if text == "" {
		return ErrEmptyOutput
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return &wfmodel.ValidationError{Issues: []string{"output is not a JSON object: " + err.Error()}}
	}
	if len(fields) == 0 {
		return ErrEmptyOutput
	}

	if missing := missingRequired("", fields, schema); len(missing) > 0 {
		return &wfmodel.ValidationError{Issues: missing}
	}

	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return &wfmodel.ValidationError{Issues: []string{describeDecodeError(err)}}
	}
	return dst.Validate()
}

// missingRequired 递归检查对象及数组元素中的必填字段，类型不符交给解码阶段报告
func missingRequired(path string, fields map[string]json.RawMessage, schema *wfmodel.Schema) []string {
	if schema == nil {
		return nil
	}
	var missing []string
	for _, name := range schema.Required {
		v, ok := fields[name]
		if !ok || isNull(v) {
			missing = append(missing, "missing required field "+path+name)
		}
	}
	for name, prop := range schema.Properties {
		v, ok := fields[name]
		if !ok || isNull(v) || prop == nil {
			continue
		}
		switch prop.Type {
		case wfmodel.TypeObject:
			var nested map[string]json.RawMessage
			if json.Unmarshal(v, &nested) == nil {
				missing = append(missing, missingRequired(path+name+".", nested, prop)...)
			}
		case wfmodel.TypeArray:
			if prop.Items == nil || prop.Items.Type != wfmodel.TypeObject {
				continue
			}
			var items []map[string]json.RawMessage
			if json.Unmarshal(v, &items) != nil {
				continue
			}
			for i, item := range items {
				missing = append(missing, missingRequired(fmt.Sprintf("%s%s[%d].", path, name, i), item, prop.Items)...)
			}
		}
	}
	return missing
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "(root)"
		}
		return fmt.Sprintf("field %s has type %s, want %s", field, typeErr.Value, typeErr.Type.String())
	}
	return strings.TrimSpace(err.Error())
}
