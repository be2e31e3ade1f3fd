package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"hydraskript-api/internal/config"
	wfmodel "hydraskript-api/internal/workflow/model"
	workflowport "hydraskript-api/internal/workflow/port"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/metrics"
	"hydraskript-api/pkg/tracer"
)

const defaultAspectRatio = "1:1"

// GenaiBackend Gemini 结构化生成、Imagen 渲染与 TTS 合成
type GenaiBackend struct {
	apiKey    string
	textModel string
	timeout   time.Duration
	image     config.ImageConfig
	speech    config.SpeechConfig

	mu     sync.Mutex
	client *genai.Client
}

// NewGenaiBackend 创建 genai 后端，客户端在首次调用时创建
func NewGenaiBackend(cfg *config.Config) *GenaiBackend {
	p := cfg.LLM.Providers[ProviderGemini]
	return &GenaiBackend{
		apiKey:    strings.TrimSpace(p.APIKey),
		textModel: p.Model,
		timeout:   p.Timeout,
		image:     cfg.LLM.Image,
		speech:    cfg.LLM.Speech,
	}
}

func (b *GenaiBackend) getClient(ctx context.Context) (*genai.Client, error) {
	if b.apiKey == "" {
		return nil, apperrors.ErrMissingCredential.WithDetail(ProviderGemini)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	b.client = client
	return client, nil
}

func (b *GenaiBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// GenerateStructured 以 ResponseSchema 约束 Gemini 输出 JSON
func (b *GenaiBackend) GenerateStructured(ctx context.Context, req *workflowport.StructuredRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.GenaiBackend.GenerateStructured")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.operation", req.Operation),
		attribute.String("llm.model", b.textModel),
	)

	client, err := b.getClient(ctx)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    toGenaiSchema(req.Schema),
	}
	if req.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	callCtx, cancel := b.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := client.Models.GenerateContent(callCtx, b.textModel, genai.Text(req.User), genCfg)
	metrics.LLMCallDuration.WithLabelValues(ProviderGemini, b.textModel).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(ProviderGemini, b.textModel, "error").Inc()
		err = classifyGenaiError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	metrics.LLMCallTotal.WithLabelValues(ProviderGemini, b.textModel, "success").Inc()
	if u := resp.UsageMetadata; u != nil {
		metrics.LLMTokensUsed.WithLabelValues(ProviderGemini, b.textModel, "prompt").Add(float64(u.PromptTokenCount))
		metrics.LLMTokensUsed.WithLabelValues(ProviderGemini, b.textModel, "completion").Add(float64(u.CandidatesTokenCount))
	}
	return resp.Text(), nil
}

// RenderImage 调用 Imagen 生成单张图片，失败统一归为 RenderFailure
func (b *GenaiBackend) RenderImage(ctx context.Context, prompt, aspectRatio string) (*wfmodel.RenderedImage, error) {
	ctx, span := tracer.Start(ctx, "llm.GenaiBackend.RenderImage")
	defer span.End()

	if strings.TrimSpace(aspectRatio) == "" {
		aspectRatio = defaultAspectRatio
	}
	mimeType := b.image.OutputMIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	span.SetAttributes(
		attribute.String("llm.model", b.image.Model),
		attribute.String("image.aspect_ratio", aspectRatio),
	)

	client, err := b.getClient(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	callCtx, cancel := b.withTimeout(ctx)
	defer cancel()

	resp, err := client.Models.GenerateImages(callCtx, b.image.Model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio,
		OutputMIMEType: mimeType,
	})
	if err != nil {
		err = classifyGenaiError(err)
		if !apperrors.Is(err, apperrors.CodeAuthFailure) {
			err = apperrors.ErrRenderFailure.WithError(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		err := apperrors.ErrRenderFailure.WithDetail("no image returned")
		span.RecordError(err)
		return nil, err
	}

	img := resp.GeneratedImages[0].Image
	if img.MIMEType != "" {
		mimeType = img.MIMEType
	}
	return &wfmodel.RenderedImage{Data: img.ImageBytes, MIMEType: mimeType}, nil
}

// SynthesizeSpeech 调用 TTS 模型，返回 24kHz 16bit 单声道 PCM
func (b *GenaiBackend) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "llm.GenaiBackend.SynthesizeSpeech")
	defer span.End()

	if strings.TrimSpace(voice) == "" {
		voice = b.speech.DefaultVoice
	}
	span.SetAttributes(
		attribute.String("llm.model", b.speech.Model),
		attribute.String("speech.voice", voice),
	)

	client, err := b.getClient(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	callCtx, cancel := b.withTimeout(ctx)
	defer cancel()

	resp, err := client.Models.GenerateContent(callCtx, b.speech.Model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		err = classifyGenaiError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if audio := firstInlineData(resp); len(audio) > 0 {
		return audio, nil
	}
	span.RecordError(apperrors.ErrNoAudioData)
	return nil, apperrors.ErrNoAudioData
}

func firstInlineData(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// classifyGenaiError 401/403 归为 AuthFailure，其余归为提供商错误
func classifyGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return apperrors.ErrAuthFailure.WithError(err)
		}
	}
	return classifyBackendError(err)
}

// toGenaiSchema 转换为 genai 的 Schema
func toGenaiSchema(s *wfmodel.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGenaiSchema(p)
		}
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	return out
}

func genaiType(t wfmodel.SchemaType) genai.Type {
	switch t {
	case wfmodel.TypeObject:
		return genai.TypeObject
	case wfmodel.TypeArray:
		return genai.TypeArray
	case wfmodel.TypeInteger:
		return genai.TypeInteger
	case wfmodel.TypeNumber:
		return genai.TypeNumber
	case wfmodel.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// NewStructuredGenerator 按 default_provider 选择结构化生成后端
func NewStructuredGenerator(cfg *config.Config, factory *EinoFactory, gemini *GenaiBackend) workflowport.StructuredGenerator {
	if cfg.LLM.DefaultProvider == ProviderGemini {
		return gemini
	}
	provider := cfg.LLM.DefaultProvider
	return NewEinoGenerator(factory, provider, cfg.LLM.Providers[provider].StructuredOutput)
}
