package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"hydraskript-api/internal/config"
	wfmodel "hydraskript-api/internal/workflow/model"
	workflowport "hydraskript-api/internal/workflow/port"
	apperrors "hydraskript-api/pkg/errors"
)

func testConfig(provider string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: provider,
			Providers: map[string]config.ProviderConfig{
				ProviderGemini: {Model: "gemini-2.5-flash"},
				"openai":       {Model: "gpt-4o-mini"},
			},
			Speech: config.SpeechConfig{Model: "tts", DefaultVoice: "Kore"},
			Image:  config.ImageConfig{Model: "imagen"},
		},
	}
}

func TestMissingCredentialFailsWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	b := NewGenaiBackend(testConfig(ProviderGemini))

	_, err := b.GenerateStructured(ctx, &workflowport.StructuredRequest{Operation: "x", Schema: wfmodel.RewriteSchema()})
	assert.True(t, apperrors.Is(err, apperrors.CodeMissingCredential))

	_, err = b.RenderImage(ctx, "a cat", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeMissingCredential))

	_, err = b.SynthesizeSpeech(ctx, "hello", "Puck")
	assert.True(t, apperrors.Is(err, apperrors.CodeMissingCredential))

	f := NewEinoFactory(testConfig("openai"))
	_, err = f.Get(ctx, "openai")
	assert.True(t, apperrors.Is(err, apperrors.CodeMissingCredential))

	_, err = f.Get(ctx, "unknown")
	assert.Error(t, err)
}

func TestNewStructuredGeneratorSelectsBackend(t *testing.T) {
	cfg := testConfig(ProviderGemini)
	gemini := NewGenaiBackend(cfg)
	assert.Same(t, gemini, NewStructuredGenerator(cfg, NewEinoFactory(cfg), gemini))

	cfg = testConfig("openai")
	gen := NewStructuredGenerator(cfg, NewEinoFactory(cfg), NewGenaiBackend(cfg))
	_, ok := gen.(*EinoGenerator)
	assert.True(t, ok)
}

func TestClassifyGenaiError(t *testing.T) {
	err := classifyGenaiError(genai.APIError{Code: 403, Message: "denied"})
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthFailure))

	err = classifyGenaiError(errors.New("400 INVALID_ARGUMENT: API key not valid"))
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthFailure))

	err = classifyGenaiError(genai.APIError{Code: 500, Message: "internal"})
	assert.True(t, apperrors.Is(err, apperrors.CodeLLMProviderError))

	already := apperrors.ErrNoAudioData
	assert.Same(t, already, classifyBackendError(already))
}

func TestToGenaiSchema(t *testing.T) {
	s := toGenaiSchema(wfmodel.OutlineSchema())
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"title", "synopsis", "chapters"}, s.Required)
	chapters := s.Properties["chapters"]
	require.NotNil(t, chapters)
	assert.Equal(t, genai.TypeArray, chapters.Type)
	assert.Equal(t, genai.TypeInteger, chapters.Items.Properties["number"].Type)
	assert.Nil(t, toGenaiSchema(nil))
}

func TestFirstInlineData(t *testing.T) {
	assert.Nil(t, firstInlineData(nil))
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "ignored"},
				{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/L16"}},
			}},
		}},
	}
	assert.Equal(t, []byte{1, 2}, firstInlineData(resp))
}

func TestBuildModelOptions(t *testing.T) {
	req := &workflowport.StructuredRequest{Operation: "op", Temperature: 0.6, MaxTokens: 100, Schema: wfmodel.RewriteSchema()}
	assert.Len(t, buildModelOptions(req, true), 3)
	assert.Len(t, buildModelOptions(req, false), 2)
}

type countingChatModel struct {
	calls    int
	optCount []int
	err      error
}

func (m *countingChatModel) Generate(_ context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	m.optCount = append(m.optCount, len(opts))
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(`{"rewritten_text":"mist","rationale_short":"tighter"}`, nil), nil
}

func (m *countingChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}

type staticFactory struct{ m model.BaseChatModel }

func (f staticFactory) Get(context.Context, string) (model.BaseChatModel, error) { return f.m, nil }

func TestEinoGeneratorSendsOneRequest(t *testing.T) {
	req := &workflowport.StructuredRequest{Operation: "rewrite_selection", Temperature: 0.6, MaxTokens: 100, Schema: wfmodel.RewriteSchema()}
	ctx := context.Background()

	rejecting := &countingChatModel{err: errors.New("400 unknown parameter: response_format")}
	_, err := NewEinoGenerator(staticFactory{rejecting}, "openai", "").GenerateStructured(ctx, req)
	assert.True(t, apperrors.Is(err, apperrors.CodeLLMProviderError))
	assert.Equal(t, 1, rejecting.calls)
	assert.Equal(t, []int{3}, rejecting.optCount)

	promptOnly := &countingChatModel{}
	out, err := NewEinoGenerator(staticFactory{promptOnly}, "openai", "Prompt").GenerateStructured(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, out, "mist")
	assert.Equal(t, []int{2}, promptOnly.optCount)
}

func TestNewStructuredGeneratorReadsProviderMode(t *testing.T) {
	cfg := testConfig("openai")
	cfg.LLM.Providers["openai"] = config.ProviderConfig{Model: "gpt-4o-mini", StructuredOutput: StructuredOutputPrompt}
	gen, ok := NewStructuredGenerator(cfg, NewEinoFactory(cfg), NewGenaiBackend(cfg)).(*EinoGenerator)
	require.True(t, ok)
	assert.False(t, gen.useSchema)
}
