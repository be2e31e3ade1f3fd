// Package generation 提供生成网关：六个无状态生成操作，统一校验、错误分类与观测
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hydraskript-api/internal/config"
	"hydraskript-api/internal/domain/entity"
	workflowchain "hydraskript-api/internal/workflow/chain"
	wfmodel "hydraskript-api/internal/workflow/model"
	"hydraskript-api/internal/workflow/node"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
	"hydraskript-api/pkg/metrics"
	"hydraskript-api/pkg/tracer"
)

const (
	OperationRenderImage      = "render_image"
	OperationSynthesizeSpeech = "synthesize_speech"
)

// 默认温度，可被 llm.temperatures 覆盖
var defaultTemperatures = map[string]float64{
	"outline":      0.7,
	"chapter":      0.8,
	"rewrite":      0.6,
	"image_prompt": 0.9,
}

// 章节生成模式对应的输出预算，只影响篇幅不影响结构
var modeMaxTokens = map[entity.GenerationMode]int{
	entity.ModeSpeed:    4096,
	entity.ModeBalanced: 8192,
	entity.ModePremium:  16384,
}

// Gateway 生成网关。每个操作只有一个终态结果，不做重试。
type Gateway struct {
	outline     *workflowchain.OutlineChain
	chapter     *workflowchain.ChapterChain
	rewrite     *workflowchain.RewriteChain
	imagePrompt *workflowchain.ImagePromptChain
	images      workflowport.ImageRenderer
	speech      workflowport.SpeechSynthesizer
	temps       map[string]float64
}

// NewGateway 创建生成网关
func NewGateway(
	cfg *config.Config,
	gen workflowport.StructuredGenerator,
	images workflowport.ImageRenderer,
	speech workflowport.SpeechSynthesizer,
	registry *workflowprompt.Registry,
) *Gateway {
	temps := make(map[string]float64, len(defaultTemperatures))
	for k, v := range defaultTemperatures {
		temps[k] = v
	}
	if cfg != nil {
		for k, v := range cfg.LLM.Temperatures {
			if v > 0 {
				temps[k] = v
			}
		}
	}
	return &Gateway{
		outline:     workflowchain.NewOutlineChain(gen, registry),
		chapter:     workflowchain.NewChapterChain(gen, registry),
		rewrite:     workflowchain.NewRewriteChain(gen, registry),
		imagePrompt: workflowchain.NewImagePromptChain(gen, registry),
		images:      images,
		speech:      speech,
		temps:       temps,
	}
}

func (g *Gateway) params(key string) workflowchain.Params {
	return workflowchain.Params{Temperature: float32(g.temps[key])}
}

// GenerateOutline 生成书籍大纲
func (g *Gateway) GenerateOutline(ctx context.Context, in *wfmodel.OutlineInput) (*wfmodel.OutlineResult, error) {
	if in == nil || strings.TrimSpace(in.Topic) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("topic is required")
	}
	var out *wfmodel.OutlineResult
	err := g.observe(ctx, workflowchain.OperationOutline, func(ctx context.Context) error {
		var err error
		out, err = g.outline.Invoke(ctx, in, g.params("outline"))
		return err
	})
	return out, err
}

// GenerateChapterContent 生成章节正文与下一章回顾
func (g *Gateway) GenerateChapterContent(ctx context.Context, in *wfmodel.ChapterDraftInput) (*wfmodel.ChapterDraftResult, error) {
	if in == nil || in.Chapter.Number <= 0 {
		return nil, apperrors.ErrInvalidParam.WithDetail("chapter number is required")
	}
	mode, err := entity.ParseGenerationMode(in.Mode)
	if err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail(err.Error())
	}
	req := *in
	req.Mode = string(mode)
	params := g.params("chapter")
	params.MaxTokens = modeMaxTokens[mode]

	var out *wfmodel.ChapterDraftResult
	err = g.observe(ctx, workflowchain.OperationChapter, func(ctx context.Context) error {
		var err error
		out, err = g.chapter.Invoke(ctx, &req, params)
		return err
	})
	return out, err
}

// RewriteSelection 按指令改写选中文本
func (g *Gateway) RewriteSelection(ctx context.Context, in *wfmodel.RewriteInput) (*wfmodel.RewriteResult, error) {
	if in == nil || strings.TrimSpace(in.SelectedText) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("selected text is required")
	}
	var out *wfmodel.RewriteResult
	err := g.observe(ctx, workflowchain.OperationRewrite, func(ctx context.Context) error {
		var err error
		out, err = g.rewrite.Invoke(ctx, in, g.params("rewrite"))
		return err
	})
	return out, err
}

// SuggestImagePrompt 为章节生成插图提示词
func (g *Gateway) SuggestImagePrompt(ctx context.Context, in *wfmodel.ImagePromptInput) (*wfmodel.ImagePromptResult, error) {
	if in == nil || strings.TrimSpace(in.ChapterSummary) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("chapter summary is required")
	}
	var out *wfmodel.ImagePromptResult
	err := g.observe(ctx, workflowchain.OperationImagePrompt, func(ctx context.Context) error {
		var err error
		out, err = g.imagePrompt.Invoke(ctx, in, g.params("image_prompt"))
		return err
	})
	return out, err
}

// RenderImage 按提示词渲染一张图片
func (g *Gateway) RenderImage(ctx context.Context, prompt, aspectRatio string) (*wfmodel.RenderedImage, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("prompt is required")
	}
	var out *wfmodel.RenderedImage
	err := g.observe(ctx, OperationRenderImage, func(ctx context.Context) error {
		var err error
		out, err = g.images.RenderImage(ctx, prompt, aspectRatio)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.MediaBytes.WithLabelValues("image").Observe(float64(len(out.Data)))
	return out, nil
}

// SynthesizeSpeech 将文本合成为原始 PCM 音频
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("text is required")
	}
	var out []byte
	err := g.observe(ctx, OperationSynthesizeSpeech, func(ctx context.Context) error {
		var err error
		out, err = g.speech.SynthesizeSpeech(ctx, text, voice)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.MediaBytes.WithLabelValues("audio").Observe(float64(len(out)))
	return out, nil
}

// observe 包裹一次后端调用：Span、指标、日志与错误分类
func (g *Gateway) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "generation.Gateway."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("gateway.operation", operation))
	ctx = logger.WithContext(ctx, logger.OperationKey, operation)

	start := time.Now()
	err := normalizeError(fn(ctx))
	metrics.GatewayCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GatewayCallTotal.WithLabelValues(operation, string(apperrors.CodeOf(err))).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "generation call failed", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}
	metrics.GatewayCallTotal.WithLabelValues(operation, "ok").Inc()
	logger.Debug(ctx, "generation call completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// normalizeError 将工作流层错误映射到错误分类，已分类的错误原样返回
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	var vErr *wfmodel.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.ErrSchemaViolation.WithDetail(vErr.Error()).WithError(err)
	}
	if errors.Is(err, node.ErrEmptyOutput) {
		return apperrors.ErrEmptyResponse.WithError(err)
	}
	return apperrors.Wrap(err, apperrors.CodeInternalError, "generation failed")
}
