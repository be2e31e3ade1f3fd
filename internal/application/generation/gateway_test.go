package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydraskript-api/internal/config"
	wfmodel "hydraskript-api/internal/workflow/model"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
	apperrors "hydraskript-api/pkg/errors"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
	last  *workflowport.StructuredRequest
}

func (s *stubGenerator) GenerateStructured(_ context.Context, req *workflowport.StructuredRequest) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

type stubMedia struct {
	image *wfmodel.RenderedImage
	audio []byte
	err   error
}

func (s *stubMedia) RenderImage(context.Context, string, string) (*wfmodel.RenderedImage, error) {
	return s.image, s.err
}

func (s *stubMedia) SynthesizeSpeech(context.Context, string, string) ([]byte, error) {
	return s.audio, s.err
}

func newTestGateway(gen *stubGenerator, media *stubMedia) *Gateway {
	cfg := &config.Config{LLM: config.LLMConfig{Temperatures: map[string]float64{"rewrite": 0.3}}}
	return NewGateway(cfg, gen, media, media, workflowprompt.NewRegistry())
}

func TestGatewayErrorTaxonomy(t *testing.T) {
	ctx := context.Background()
	in := &wfmodel.RewriteInput{SelectedText: "slow prose"}

	cases := []struct {
		name string
		gen  *stubGenerator
		code apperrors.ErrorCode
	}{
		{"empty", &stubGenerator{reply: "  "}, apperrors.CodeEmptyResponse},
		{"empty object", &stubGenerator{reply: "{}"}, apperrors.CodeEmptyResponse},
		{"not json", &stubGenerator{reply: "sorry"}, apperrors.CodeSchemaViolation},
		{"missing field", &stubGenerator{reply: `{"rewritten_text":"x"}`}, apperrors.CodeSchemaViolation},
		{"auth", &stubGenerator{err: apperrors.ErrAuthFailure}, apperrors.CodeAuthFailure},
		{"credential", &stubGenerator{err: apperrors.ErrMissingCredential}, apperrors.CodeMissingCredential},
		{"unclassified", &stubGenerator{err: errors.New("boom")}, apperrors.CodeInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newTestGateway(tc.gen, &stubMedia{})
			_, err := gw.RewriteSelection(ctx, in)
			require.Error(t, err)
			assert.Equal(t, tc.code, apperrors.CodeOf(err))
			assert.Equal(t, 1, tc.gen.calls, "no retries")
		})
	}
}

func TestGatewayParameters(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{reply: `{"rewritten_text":"x","rationale_short":"y"}`}
	gw := newTestGateway(gen, &stubMedia{})

	_, err := gw.RewriteSelection(ctx, &wfmodel.RewriteInput{SelectedText: "a"})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, gen.last.Temperature, 1e-6)

	gen.reply = `{"content_markdown":"c","recap_for_next_chapter":"r"}`
	_, err = gw.GenerateChapterContent(ctx, &wfmodel.ChapterDraftInput{Chapter: wfmodel.ChapterRef{Number: 1}, Mode: "premium"})
	require.NoError(t, err)
	assert.Equal(t, 16384, gen.last.MaxTokens)
	assert.InDelta(t, 0.8, gen.last.Temperature, 1e-6)

	_, err = gw.GenerateChapterContent(ctx, &wfmodel.ChapterDraftInput{Chapter: wfmodel.ChapterRef{Number: 1}, Mode: "turbo"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
}

func TestGatewayInputValidation(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{}
	gw := newTestGateway(gen, &stubMedia{})

	_, err := gw.GenerateOutline(ctx, &wfmodel.OutlineInput{})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	_, err = gw.SuggestImagePrompt(ctx, &wfmodel.ImagePromptInput{})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	_, err = gw.RenderImage(ctx, " ", "1:1")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	_, err = gw.SynthesizeSpeech(ctx, "", "Kore")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	assert.Zero(t, gen.calls)
}

func TestGatewayMedia(t *testing.T) {
	ctx := context.Background()
	media := &stubMedia{
		image: &wfmodel.RenderedImage{Data: []byte("img"), MIMEType: "image/jpeg"},
		audio: []byte{0, 1},
	}
	gw := newTestGateway(&stubGenerator{}, media)

	img, err := gw.RenderImage(ctx, "a lighthouse", "")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,aW1n", img.DataURL())

	audio, err := gw.SynthesizeSpeech(ctx, "hello", "Kore")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, audio)

	media.err = apperrors.ErrNoAudioData
	_, err = gw.SynthesizeSpeech(ctx, "hello", "Kore")
	assert.True(t, apperrors.Is(err, apperrors.CodeNoAudioData))

	media.err = apperrors.ErrRenderFailure
	_, err = gw.RenderImage(ctx, "a lighthouse", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeRenderFailure))
}
