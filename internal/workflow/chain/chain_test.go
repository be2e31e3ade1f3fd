package chain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "hydraskript-api/internal/workflow/model"
	"hydraskript-api/internal/workflow/node"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
)

type recordingGenerator struct {
	reply string
	err   error
	last  *workflowport.StructuredRequest
}

func (g *recordingGenerator) GenerateStructured(_ context.Context, req *workflowport.StructuredRequest) (string, error) {
	g.last = req
	return g.reply, g.err
}

func userVars(t *testing.T, req *workflowport.StructuredRequest) map[string]any {
	t.Helper()
	const prefix = "User vars (JSON): "
	require.True(t, strings.HasPrefix(req.User, prefix), req.User)
	var vars map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(req.User, prefix)), &vars))
	return vars
}

func TestOutlineChainSendsBibleWithoutIDs(t *testing.T) {
	gen := &recordingGenerator{reply: `{"title":"T","synopsis":"S","chapters":[{"number":1,"title":"A","summary":"a","key_points":[]}]}`}
	c := NewOutlineChain(gen, workflowprompt.NewRegistry())

	out, err := c.Invoke(context.Background(), &wfmodel.OutlineInput{
		Topic:       "dragons",
		Length:      "Short (5 chapters)",
		ProjectType: "kids",
		Bible:       []wfmodel.BibleEntry{{Name: "Mira", Type: "Character", Description: "a girl"}},
	}, Params{Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, "T", out.Title)

	assert.Equal(t, OperationOutline, gen.last.Operation)
	assert.InDelta(t, 0.7, gen.last.Temperature, 1e-6)
	vars := userVars(t, gen.last)
	assert.Equal(t, "kids", vars["project_type"])
	assert.Equal(t, "Short (5 chapters)", vars["length_target"])
	bible := vars["story_bible"].([]any)
	require.Len(t, bible, 1)
	entry := bible[0].(map[string]any)
	assert.NotContains(t, entry, "id")
	assert.Equal(t, "Mira", entry["name"])
}

func TestChapterChainCarriesRecap(t *testing.T) {
	gen := &recordingGenerator{reply: `{"content_markdown":"Once.","recap_for_next_chapter":"Mira left."}`}
	c := NewChapterChain(gen, workflowprompt.NewRegistry())

	out, err := c.Invoke(context.Background(), &wfmodel.ChapterDraftInput{
		Chapter:              wfmodel.ChapterRef{Number: 2, Title: "Two"},
		Project:              wfmodel.ProjectContext{Title: "Book", Synopsis: "S"},
		Mode:                 "speed",
		PreviousChapterRecap: "Mira arrived.",
	}, Params{})
	require.NoError(t, err)
	assert.Equal(t, "Mira left.", out.RecapForNextChapter)

	vars := userVars(t, gen.last)
	assert.Equal(t, "Mira arrived.", vars["previous_chapter_recap"])
	assert.Equal(t, "standard", vars["project_type"])
	assert.Equal(t, "speed", vars["mode"])
}

func TestRewriteChainDefaultsCommand(t *testing.T) {
	gen := &recordingGenerator{reply: `{"rewritten_text":"better","rationale_short":"tighter"}`}
	c := NewRewriteChain(gen, workflowprompt.NewRegistry())

	_, err := c.Invoke(context.Background(), &wfmodel.RewriteInput{SelectedText: "bad"}, Params{})
	require.NoError(t, err)
	vars := userVars(t, gen.last)
	assert.Equal(t, DefaultRewriteCommand, vars["command"])
	assert.Equal(t, "±20%", vars["max_delta"])
}

func TestImagePromptChainColoringTheme(t *testing.T) {
	gen := &recordingGenerator{reply: `{"image_prompt":"a cat","suggested_aspect_ratio":"1:1"}`}
	c := NewImagePromptChain(gen, workflowprompt.NewRegistry())

	_, err := c.Invoke(context.Background(), &wfmodel.ImagePromptInput{
		ChapterSummary: "cats",
		StyleKeywords:  []string{"Calm", "clutter"},
		ProjectType:    "coloring",
	}, Params{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(gen.last.System, "Theme: Calm,clutter"))
	assert.Equal(t, true, userVars(t, gen.last)["sdxl_enabled"])
}

func TestChainPropagatesErrors(t *testing.T) {
	backendErr := errors.New("boom")
	c := NewRewriteChain(&recordingGenerator{err: backendErr}, workflowprompt.NewRegistry())
	_, err := c.Invoke(context.Background(), &wfmodel.RewriteInput{SelectedText: "x"}, Params{})
	assert.ErrorIs(t, err, backendErr)

	c = NewRewriteChain(&recordingGenerator{reply: ""}, workflowprompt.NewRegistry())
	_, err = c.Invoke(context.Background(), &wfmodel.RewriteInput{SelectedText: "x"}, Params{})
	assert.ErrorIs(t, err, node.ErrEmptyOutput)

	c = NewRewriteChain(&recordingGenerator{reply: `{"rewritten_text":"x"}`}, workflowprompt.NewRegistry())
	_, err = c.Invoke(context.Background(), &wfmodel.RewriteInput{SelectedText: "x"}, Params{})
	var vErr *wfmodel.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
