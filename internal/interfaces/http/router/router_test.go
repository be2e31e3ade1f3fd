package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydraskript-api/internal/application/continuity"
	"hydraskript-api/internal/application/narration"
	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/config"
	"hydraskript-api/internal/infrastructure/persistence/memory"
	"hydraskript-api/internal/interfaces/http/handler"
	"hydraskript-api/internal/interfaces/http/middleware"
	wfmodel "hydraskript-api/internal/workflow/model"
	apperrors "hydraskript-api/pkg/errors"
)

type stubGenerator struct {
	outlineErr error
}

func (s *stubGenerator) GenerateOutline(_ context.Context, in *wfmodel.OutlineInput) (*wfmodel.OutlineResult, error) {
	if s.outlineErr != nil {
		return nil, s.outlineErr
	}
	return &wfmodel.OutlineResult{
		Title:    "The Keeper",
		Synopsis: "A lighthouse keeper finds a map.",
		Chapters: []wfmodel.OutlineChapter{
			{Number: 1, Title: "Fog", Summary: "The fog rolls in."},
			{Number: 2, Title: "Map", Summary: "The map appears."},
		},
	}, nil
}

func (s *stubGenerator) GenerateChapterContent(_ context.Context, in *wfmodel.ChapterDraftInput) (*wfmodel.ChapterDraftResult, error) {
	return &wfmodel.ChapterDraftResult{
		ContentMarkdown:     "The fog rolled in over the rocks.",
		RecapForNextChapter: "Fog arrived.",
		EntitiesIntroduced:  []string{"Mira"},
	}, nil
}

func (s *stubGenerator) RewriteSelection(_ context.Context, in *wfmodel.RewriteInput) (*wfmodel.RewriteResult, error) {
	return &wfmodel.RewriteResult{RewrittenText: "mist", RationaleShort: "softer"}, nil
}

func (s *stubGenerator) SuggestImagePrompt(_ context.Context, in *wfmodel.ImagePromptInput) (*wfmodel.ImagePromptResult, error) {
	return &wfmodel.ImagePromptResult{ImagePrompt: "lighthouse", SuggestedAspectRatio: "1:1"}, nil
}

func (s *stubGenerator) RenderImage(_ context.Context, prompt, aspectRatio string) (*wfmodel.RenderedImage, error) {
	return &wfmodel.RenderedImage{Data: []byte("png"), MIMEType: "image/png"}, nil
}

type stubSynth struct{}

func (stubSynth) SynthesizeSpeech(_ context.Context, text, voice string) ([]byte, error) {
	return []byte{1, 0, 2, 0}, nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, string) (bool, error) { return false, nil }

func newTestRouter(t *testing.T, gen pipeline.Generator, limiter middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.App.Name = "hydraskript-test"
	cfg.Security.RateLimit.Enabled = limiter != nil

	store := memory.NewStore()
	ws := workspace.New(store)
	p := pipeline.New(ws, gen, continuity.NewTracker(cfg, ws.NewID))

	h := &Handlers{
		Health:    handler.NewHealthHandler(store, config.StorageMemory, "test"),
		Genesis:   handler.NewGenesisHandler(p, ws),
		Project:   handler.NewProjectHandler(p, ws),
		Chapter:   handler.NewChapterHandler(p),
		Style:     handler.NewStyleHandler(ws),
		Entity:    handler.NewEntityHandler(ws),
		Narration: handler.NewNarrationHandler(narration.NewStudio(cfg, stubSynth{})),
	}
	return New(cfg, h, limiter).Engine()
}

func doJSON(t *testing.T, engine http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		ErrorCode string `json:"error_code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestRouter(t, &stubGenerator{}, nil)
	for _, path := range []string{"/health", "/ready", "/live"} {
		w := doJSON(t, engine, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	w := doJSON(t, engine, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGenesisToWorkspaceFlow(t *testing.T) {
	engine := newTestRouter(t, &stubGenerator{}, nil)

	w := doJSON(t, engine, http.MethodPost, "/v1/genesis", map[string]any{
		"topic": "lighthouse keeper", "genre": "Mystery", "project_type": "standard",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Chapters []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &project))
	assert.Equal(t, "The Keeper", project.Title)
	require.Len(t, project.Chapters, 2)
	assert.Equal(t, "draft", project.Chapters[0].Status)

	// 锁定前不能进入工作区操作
	w = doJSON(t, engine, http.MethodPost, "/v1/chapters/"+project.Chapters[0].ID+"/generate", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(apperrors.CodeInvalidStage), decode(t, w).Error.ErrorCode)

	w = doJSON(t, engine, http.MethodPost, "/v1/genesis/lock", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Stage           string `json:"stage"`
		ActiveChapterID string `json:"active_chapter_id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &session))
	assert.Equal(t, "workspace", session.Stage)
	assert.Equal(t, project.Chapters[0].ID, session.ActiveChapterID)

	w = doJSON(t, engine, http.MethodPost, "/v1/chapters/"+project.Chapters[0].ID+"/generate", map[string]string{"mode": "speed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var generated struct {
		Chapter struct {
			Status  string `json:"status"`
			Content string `json:"content"`
		} `json:"chapter"`
		ImageError *struct{} `json:"image_error"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &generated))
	assert.Equal(t, "generated", generated.Chapter.Status)
	assert.Equal(t, "The fog rolled in over the rocks.", generated.Chapter.Content)
	assert.Nil(t, generated.ImageError)

	w = doJSON(t, engine, http.MethodPost, "/v1/chapters/"+project.Chapters[0].ID+"/rewrite", map[string]any{
		"selection": map[string]any{"text": "fog"},
		"command":   "make it softer",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rewrite struct {
		Applied bool `json:"applied"`
		Chapter struct {
			Content string `json:"content"`
		} `json:"chapter"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rewrite))
	assert.True(t, rewrite.Applied)
	assert.Equal(t, "The mist rolled in over the rocks.", rewrite.Chapter.Content)

	w = doJSON(t, engine, http.MethodPost, "/v1/projects/current/entities/pending/approve", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/v1/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), project.ID)
}

func TestGenerateErrorsMapToStatus(t *testing.T) {
	engine := newTestRouter(t, &stubGenerator{outlineErr: apperrors.ErrMissingCredential}, nil)

	w := doJSON(t, engine, http.MethodPost, "/v1/genesis", map[string]any{"topic": "dragons"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(apperrors.CodeMissingCredential), decode(t, w).Error.ErrorCode)

	w = doJSON(t, engine, http.MethodPost, "/v1/genesis", map[string]any{"genre": "Fantasy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/v1/projects/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStylesAndBible(t *testing.T) {
	engine := newTestRouter(t, &stubGenerator{}, nil)

	w := doJSON(t, engine, http.MethodGet, "/v1/styles/active", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodPatch, "/v1/styles/active", strings.NewReader(`{"tone":"Wry"}`))
	req.Header.Set("Content-Type", "application/merge-patch+json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Wry")

	w = doJSON(t, engine, http.MethodPost, "/v1/entities", map[string]any{
		"type": "character", "name": "Mira", "description": "A curious keeper.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodGet, "/v1/entities?type=character", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mira")

	w = doJSON(t, engine, http.MethodGet, "/v1/entities/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "story_bible.yaml")
	assert.Contains(t, w.Body.String(), "Mira")
}

func TestNarrationReturnsWAV(t *testing.T) {
	engine := newTestRouter(t, &stubGenerator{}, nil)

	w := doJSON(t, engine, http.MethodPost, "/v1/narration", map[string]string{"text": "Once upon a time.", "voice": "puck"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Equal(t, "Puck", w.Header().Get("X-Narration-Voice"))
	assert.Equal(t, "RIFF", w.Body.String()[:4])

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "chapter.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("A short chapter."))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/narration", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Kore", rec.Header().Get("X-Narration-Voice"))

	w = doJSON(t, engine, http.MethodPost, "/v1/narration", map[string]string{"text": "hi", "voice": "robot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitOnlyOnGenerationRoutes(t *testing.T) {
	engine := newTestRouter(t, &stubGenerator{}, denyLimiter{})

	w := doJSON(t, engine, http.MethodPost, "/v1/genesis", map[string]any{"topic": "dragons"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/v1/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
