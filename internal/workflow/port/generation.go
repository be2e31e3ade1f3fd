// Package port 定义工作流层对生成后端的依赖
package port

import (
	"context"

	wfmodel "hydraskript-api/internal/workflow/model"
)

// StructuredRequest 一次结构化文本生成请求
type StructuredRequest struct {
	// Operation 操作名，用于指标与追踪
	Operation   string
	System      string
	User        string
	Schema      *wfmodel.Schema
	SchemaName  string
	Temperature float32
	// MaxTokens 为 0 时使用后端默认值
	MaxTokens int
}

// StructuredGenerator 结构化文本生成后端，返回模型原始文本
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, req *StructuredRequest) (string, error)
}

// ImageRenderer 图像渲染后端
type ImageRenderer interface {
	RenderImage(ctx context.Context, prompt, aspectRatio string) (*wfmodel.RenderedImage, error)
}

// SpeechSynthesizer 语音合成后端，返回原始 PCM 音频
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error)
}
