package redis

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydraskript-api/internal/domain/entity"
)

func newTestStore(t *testing.T) (*WorkspaceStore, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClientFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return NewWorkspaceStore(client, "test"), client
}

func TestWorkspaceStoreProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	missing, err := store.GetProject(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ch := entity.NewChapter("c1", 1, "Opening", "The hero wakes", []string{"wake"})
	ch.SetImageSuggestion(&entity.ImagePrompt{Prompt: "sunrise", AspectRatio: "16:9"})
	p := &entity.BookProject{ID: "p1", Type: entity.ProjectTypeKids, Title: "Dawn", Chapters: []*entity.Chapter{ch}, UpdatedAt: time.Now()}
	require.NoError(t, store.SaveProject(ctx, p))

	got, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dawn", got.Title)
	assert.Equal(t, entity.ProjectTypeKids, got.Type)
	require.NotNil(t, got.Chapters[0].ImageSuggestion)
	assert.Equal(t, "sunrise", got.Chapters[0].ImageSuggestion.Prompt)

	list, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ChapterCount)

	require.NoError(t, store.DeleteProject(ctx, "p1"))
	gone, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, gone)
	list, err = store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// holdFirstGet 让第一条 GET 在拿到回复后停住，直到 release 关闭
type holdFirstGet struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (h *holdFirstGet) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *holdFirstGet) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() != "get" {
			return err
		}
		first := false
		h.once.Do(func() { first = true })
		if first {
			close(h.started)
			<-h.release
		}
		return err
	}
}

func (h *holdFirstGet) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func TestWorkspaceStoreReadAfterSaveIsFresh(t *testing.T) {
	ctx := context.Background()
	store, client := newTestStore(t)
	require.NoError(t, store.SaveProject(ctx, &entity.BookProject{ID: "p1", Title: "v1", UpdatedAt: time.Now()}))

	hook := &holdFirstGet{started: make(chan struct{}), release: make(chan struct{})}
	client.rdb.AddHook(hook)
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(hook.release) }) }
	timer := time.AfterFunc(2*time.Second, release)
	defer timer.Stop()

	// 先发出的读取拿到 v1 后停住
	earlier := make(chan *entity.BookProject, 1)
	go func() {
		p, err := store.GetProject(ctx, "p1")
		assert.NoError(t, err)
		earlier <- p
	}()
	<-hook.started

	require.NoError(t, store.SaveProject(ctx, &entity.BookProject{ID: "p1", Title: "v2", UpdatedAt: time.Now()}))

	got, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.Title)

	release()
	stale := <-earlier
	require.NotNil(t, stale)
	assert.Equal(t, "v1", stale.Title)

	require.NoError(t, store.DeleteProject(ctx, "p1"))
	gone, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestWorkspaceStoreEntitiesAndStyles(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, e := range entity.DefaultEntities() {
		require.NoError(t, store.SaveEntity(ctx, e))
	}
	require.NoError(t, store.DeleteEntity(ctx, "1"))
	list, err := store.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Central City", list[0].Name)

	noir := &entity.StyleProfile{ID: "noir", Name: "Noir", Tone: "Moody"}
	require.NoError(t, store.SaveStyle(ctx, noir))
	require.NoError(t, store.SaveStyle(ctx, entity.DefaultStyleProfile()))
	styles, err := store.ListStyles(ctx)
	require.NoError(t, err)
	require.Len(t, styles, 2)
	assert.Equal(t, entity.DefaultStyleID, styles[0].ID)

	got, err := store.GetStyle(ctx, "noir")
	require.NoError(t, err)
	assert.Equal(t, "Moody", got.Tone)
}

func TestWorkspaceStoreSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	s, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	session := entity.NewSession()
	session.Stage = entity.StageOutlineLock
	session.Draft.Topic = "dragons"
	require.NoError(t, store.SaveSession(ctx, session))

	loaded, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StageOutlineLock, loaded.Stage)
	assert.Equal(t, "dragons", loaded.Draft.Topic)
}

func TestRateLimiterAllow(t *testing.T) {
	ctx := context.Background()
	_, client := newTestStore(t)
	limiter := NewRateLimiter(client)
	key := BuildRateLimitKey("test", "127.0.0.1", "/v1/chapters/generate")

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
