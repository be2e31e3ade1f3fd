package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydraskript-api/internal/domain/entity"
)

func TestStoreCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	p := &entity.BookProject{ID: "p1", Title: "Book", Chapters: []*entity.Chapter{entity.NewChapter("c1", 1, "One", "s", nil)}}
	require.NoError(t, s.SaveProject(ctx, p))
	p.Title = "mutated after save"

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Title)

	got.Chapters[0].Title = "mutated after read"
	again, _ := s.GetProject(ctx, "p1")
	assert.Equal(t, "One", again.Chapters[0].Title)

	missing, err := s.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreEntitiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, e := range entity.DefaultEntities() {
		require.NoError(t, s.SaveEntity(ctx, e))
	}
	require.NoError(t, s.SaveEntity(ctx, entity.NewStoryEntity("3", entity.EntityTypeRule, "No magic at noon", "")))
	require.NoError(t, s.DeleteEntity(ctx, "2"))
	require.NoError(t, s.DeleteEntity(ctx, "missing"))

	list, err := s.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Protagonist", list[0].Name)
	assert.Equal(t, "No magic at noon", list[1].Name)
}

func TestStoreListProjectsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	require.NoError(t, s.SaveProject(ctx, &entity.BookProject{ID: "old", UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.SaveProject(ctx, &entity.BookProject{ID: "new", UpdatedAt: now}))

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	require.NoError(t, s.DeleteProject(ctx, "new"))
	require.NoError(t, s.DeleteProject(ctx, "missing"))
	list, err = s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
