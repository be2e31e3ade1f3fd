// Package node 提供工作流中可复用的解析与文本处理节点
package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个 JSON 对象。
// 兼容 ```json 代码块以及 JSON 前后夹杂的说明文字；找不到时原样返回去空白后的文本。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(stripCodeFence(s))
	if raw == "" || json.Valid([]byte(raw)) {
		return raw
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}

	candidate := raw[start : end+1]
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return raw
}

// stripCodeFence 去掉 markdown 代码块包裹
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		// 丢弃语言标记行，例如 ```json
		t = t[nl+1:]
	}
	t = strings.TrimSpace(t)
	return strings.TrimSuffix(t, "```")
}
