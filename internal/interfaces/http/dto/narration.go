// Package dto 提供 HTTP 层数据传输对象
package dto

// NarrationRequest JSON 方式提交的朗读文本
type NarrationRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice,omitempty"`
}

// VoicesResponse 可选音色
type VoicesResponse struct {
	Voices  []string `json:"voices"`
	Default string   `json:"default"`
}
