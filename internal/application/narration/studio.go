// Package narration 有声书工作室：加载朗读源、截断文本、合成语音并封装为 WAV
package narration

import (
	"context"
	"io"
	"strings"

	"hydraskript-api/internal/config"
	"hydraskript-api/internal/workflow/node"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// DownloadName 合成音频的下载文件名
const DownloadName = "audiobook_chapter.wav"

// DefaultVoice 默认朗读音色
const DefaultVoice = "Kore"

// Voices 可选音色
var Voices = []string{"Kore", "Puck", "Charon", "Fenrir", "Zephyr"}

const (
	defaultMaxSourceBytes = 5 << 20
	defaultMaxChars       = 1000
	defaultSampleRate     = 24000
)

// Synthesizer 语音合成，返回原始 PCM
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error)
}

// Audio 合成结果
type Audio struct {
	WAV       []byte
	Voice     string
	Filename  string
	Text      string
	Truncated bool
}

// Studio 有声书工作室
type Studio struct {
	synth      Synthesizer
	maxBytes   int64
	maxChars   int
	sampleRate int
}

// NewStudio 创建有声书工作室
func NewStudio(cfg *config.Config, synth Synthesizer) *Studio {
	s := &Studio{
		synth:      synth,
		maxBytes:   defaultMaxSourceBytes,
		maxChars:   defaultMaxChars,
		sampleRate: defaultSampleRate,
	}
	if cfg != nil {
		if cfg.Features.Narration.MaxSourceBytes > 0 {
			s.maxBytes = cfg.Features.Narration.MaxSourceBytes
		}
		if cfg.Features.Narration.MaxChars > 0 {
			s.maxChars = cfg.Features.Narration.MaxChars
		}
		if cfg.LLM.Speech.SampleRate > 0 {
			s.sampleRate = cfg.LLM.Speech.SampleRate
		}
	}
	return s
}

// MaxSourceBytes 朗读源大小上限
func (s *Studio) MaxSourceBytes() int64 {
	return s.maxBytes
}

// ParseVoice 校验音色，空值使用默认音色
func ParseVoice(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultVoice, nil
	}
	for _, known := range Voices {
		if strings.EqualFold(known, v) {
			return known, nil
		}
	}
	return "", apperrors.ErrInvalidParam.WithDetail("unknown voice: " + v)
}

// LoadSource 读取 .txt 或 .pdf 朗读源
func (s *Studio) LoadSource(filename string, r io.Reader) (string, error) {
	data, err := readSource(r, s.maxBytes)
	if err != nil {
		return "", err
	}
	return extractText(filename, data)
}

// Narrate 截断文本后合成语音
func (s *Studio) Narrate(ctx context.Context, text, voice string) (*Audio, error) {
	if int64(len(text)) > s.maxBytes {
		return nil, apperrors.ErrInputTooLarge.WithDetail("narration text is too large")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("narration text is empty")
	}
	voice, err := ParseVoice(voice)
	if err != nil {
		return nil, err
	}

	spoken, truncated := node.TruncateWithEllipsis(text, s.maxChars)
	pcm, err := s.synth.SynthesizeSpeech(ctx, spoken, voice)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, apperrors.ErrNoAudioData
	}

	logger.Info(ctx, "narration synthesized",
		"voice", voice,
		"chars", len([]rune(spoken)),
		"truncated", truncated,
		"pcm_bytes", len(pcm),
	)
	return &Audio{
		WAV:       EncodeWAV(pcm, s.sampleRate),
		Voice:     voice,
		Filename:  DownloadName,
		Text:      spoken,
		Truncated: truncated,
	}, nil
}
