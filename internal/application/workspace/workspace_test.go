package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/infrastructure/persistence/memory"
	apperrors "hydraskript-api/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestWorkspace(t *testing.T) (*Workspace, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return New(store), store
}

func TestFirstAccessSeedsDefaults(t *testing.T) {
	ws, store := newTestWorkspace(t)
	ctx := context.Background()

	sess, err := ws.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StageGenesis, sess.Stage)
	assert.Equal(t, entity.DefaultStyleID, sess.ActiveStyleID)

	style, err := ws.ActiveStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hydra Default", style.Name)
	assert.Equal(t, 80, style.VoiceStrength)

	entities, err := ws.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Protagonist", entities[0].Name)
	assert.Equal(t, "Central City", entities[1].Name)

	// 已有会话的存储不会被重新初始化
	require.NoError(t, store.DeleteEntity(ctx, entities[0].ID))
	again, err := New(store).Entities(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestWritersSeedFreshWorkspace(t *testing.T) {
	ctx := context.Background()

	ws, _ := newTestWorkspace(t)
	_, err := ws.AddEntity(ctx, "Location", "Harbor", "")
	require.NoError(t, err)
	all, err := ws.Entities(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, e := range all {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"Protagonist", "Central City", "Harbor"}, names)

	ws, _ = newTestWorkspace(t)
	_, err = ws.SaveStyle(ctx, &entity.StyleProfile{Name: "Noir"})
	require.NoError(t, err)
	styles, err := ws.ListStyles(ctx)
	require.NoError(t, err)
	assert.Len(t, styles, 2)

	ws, _ = newTestWorkspace(t)
	n, err := ws.ImportEntitiesYAML(ctx, []byte("entities:\n  - type: Lore\n    name: Tides\n"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	all, err = ws.Entities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStyles(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	_, err := ws.SaveStyle(ctx, &entity.StyleProfile{Name: "  "})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))

	noir, err := ws.SaveStyle(ctx, &entity.StyleProfile{
		Name:          "Noir",
		Tone:          "Hard-boiled",
		VoiceStrength: 140,
		Avoid:         []string{"adverbs", " Adverbs ", ""},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, noir.ID)
	assert.Equal(t, 100, noir.VoiceStrength)
	assert.Equal(t, []string{"adverbs"}, noir.Avoid)

	styles, err := ws.ListStyles(ctx)
	require.NoError(t, err)
	assert.Len(t, styles, 2)

	_, err = ws.ActivateStyle(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeStyleNotFound))

	_, err = ws.ActivateStyle(ctx, noir.ID)
	require.NoError(t, err)
	active, err := ws.ActiveStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Noir", active.Name)

	patched, err := ws.PatchActiveStyle(ctx, []byte(`{"id":"hijack","tone":"Wry","voiceStrength":-5}`))
	require.NoError(t, err)
	assert.Equal(t, noir.ID, patched.ID)
	assert.Equal(t, "Wry", patched.Tone)
	assert.Equal(t, 0, patched.VoiceStrength)
	assert.Equal(t, "Noir", patched.Name)

	_, err = ws.PatchActiveStyle(ctx, []byte(`not json`))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
}

func TestBibleFilterAndPatch(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	_, err := ws.AddEntity(ctx, "Spaceship", "Nostromo", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))

	mira, err := ws.AddEntity(ctx, "character", "Mira Ostrova", "A cartographer.")
	require.NoError(t, err)
	assert.Equal(t, entity.EntityTypeCharacter, mira.Type)
	_, err = ws.AddEntity(ctx, "Rule", "No magic after dusk", "")
	require.NoError(t, err)

	chars, err := ws.ListEntities(ctx, EntityFilter{Type: entity.EntityTypeCharacter})
	require.NoError(t, err)
	assert.Len(t, chars, 2)

	found, err := ws.ListEntities(ctx, EntityFilter{Query: "OSTROVA"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, mira.ID, found[0].ID)

	none, err := ws.ListEntities(ctx, EntityFilter{Type: entity.EntityTypeLore, Query: "mira"})
	require.NoError(t, err)
	assert.Empty(t, none)

	patched, err := ws.PatchEntity(ctx, mira.ID, []byte(`{"description":"A cartographer of drowned maps.","id":"other"}`))
	require.NoError(t, err)
	assert.Equal(t, mira.ID, patched.ID)
	assert.Equal(t, "Mira Ostrova", patched.Name)
	assert.Equal(t, "A cartographer of drowned maps.", patched.Description)

	_, err = ws.PatchEntity(ctx, mira.ID, []byte(`{"name":""}`))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
	_, err = ws.PatchEntity(ctx, "missing", []byte(`{}`))
	assert.True(t, apperrors.Is(err, apperrors.CodeEntityNotFound))

	require.NoError(t, ws.DeleteEntity(ctx, mira.ID))
	assert.True(t, apperrors.Is(ws.DeleteEntity(ctx, mira.ID), apperrors.CodeEntityNotFound))
}

func TestBibleYAMLRoundTrip(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	data, err := ws.ExportEntitiesYAML(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Protagonist")

	n, err := ws.ImportEntitiesYAML(ctx, []byte(`
entities:
  - type: lore
    name: The Flood
    description: The sea rose in a single night.
  - id: "2"
    type: Location
    name: Drowned City
`), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := ws.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3, "id 2 is overwritten in place")
	names := make([]string, 0, len(all))
	for _, e := range all {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"Protagonist", "Drowned City", "The Flood"}, names)

	n, err = ws.ImportEntitiesYAML(ctx, data, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	all, err = ws.Entities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = ws.ImportEntitiesYAML(ctx, []byte("entities:\n  - type: Spaceship\n    name: X\n"), false)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidParam))
}

func TestUpdateIsAtomic(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := ws.Update(ctx, func(tx *Tx) error {
		tx.SaveProject(&entity.BookProject{ID: "p1", Title: "Half-built"})
		tx.Session.Stage = entity.StageWorkspace
		tx.Session.CurrentProjectID = "p1"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sess, err := ws.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StageGenesis, sess.Stage)
	_, err = ws.Project(ctx, "p1")
	assert.True(t, apperrors.Is(err, apperrors.CodeProjectNotFound))

	_, err = ws.Update(ctx, func(tx *Tx) error {
		tx.SaveProject(&entity.BookProject{ID: "p1", Title: "Built"})
		return nil
	})
	require.NoError(t, err)
	_, err = ws.Update(ctx, func(tx *Tx) error {
		p, err := tx.Project("p1")
		if err != nil {
			return err
		}
		p.Title = "Renamed"
		tx.SaveProject(p)
		again, err := tx.Project("p1")
		if err != nil {
			return err
		}
		assert.Equal(t, "Renamed", again.Title, "staged copy is visible inside the transaction")
		return nil
	})
	require.NoError(t, err)

	p, err := ws.Project(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Title)
	assert.False(t, p.UpdatedAt.IsZero())

	err = ws.View(ctx, func(tx *Tx) error {
		tx.Session.Stage = entity.StageWorkspace
		return nil
	})
	require.NoError(t, err)
	sess, err = ws.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StageGenesis, sess.Stage, "view never persists")
}

func TestOpenProject(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	_, err := ws.OpenProject(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeProjectNotFound))

	proj := &entity.BookProject{
		ID:    "p1",
		Title: "Saved",
		Chapters: []*entity.Chapter{
			entity.NewChapter("c2", 2, "Two", "", nil),
			entity.NewChapter("c1", 1, "One", "", nil),
		},
	}
	_, err = ws.Update(ctx, func(tx *Tx) error {
		tx.SaveProject(proj)
		return nil
	})
	require.NoError(t, err)

	list, err := ws.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ChapterCount)

	opened, err := ws.OpenProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Saved", opened.Title)

	sess, err := ws.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StageWorkspace, sess.Stage)
	assert.Equal(t, "p1", sess.CurrentProjectID)
	assert.Equal(t, "c1", sess.ActiveChapterID)

	current, err := ws.CurrentProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", current.ID)
}
