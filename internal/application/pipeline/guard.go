package pipeline

import (
	"sync"

	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/metrics"
)

// chapterGuard 每个章节同一时间只允许一个生成类操作
type chapterGuard struct {
	mu       sync.Mutex
	inFlight map[string]string
}

func newChapterGuard() *chapterGuard {
	return &chapterGuard{inFlight: make(map[string]string)}
}

// acquire 占用章节，已被占用时返回 GenerationInFlight
func (g *chapterGuard) acquire(chapterID, operation string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if holder, ok := g.inFlight[chapterID]; ok {
		return nil, apperrors.ErrGenerationInFlight.WithDetail(holder + " is running for chapter " + chapterID)
	}
	g.inFlight[chapterID] = operation
	metrics.GenerationsInFlight.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, chapterID)
			g.mu.Unlock()
			metrics.GenerationsInFlight.Dec()
		})
	}, nil
}

func (g *chapterGuard) busy(chapterID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inFlight[chapterID]
	return ok
}
