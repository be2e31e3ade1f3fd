package continuity

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hydraskript-api/internal/config"
	"hydraskript-api/internal/domain/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "e" + strconv.Itoa(n)
	}
}

func trackerWith(policy string) *Tracker {
	cfg := &config.Config{}
	cfg.Features.EntityMerge.Policy = policy
	return NewTracker(cfg, sequentialIDs())
}

func projectWithChapters(n int) *entity.BookProject {
	p := &entity.BookProject{ID: "p", Entities: entity.DefaultEntities()}
	for i := 1; i <= n; i++ {
		p.Chapters = append(p.Chapters, entity.NewChapter("c"+strconv.Itoa(i), i, "Chapter "+strconv.Itoa(i), "", nil))
	}
	return p
}

func TestPreviousRecap(t *testing.T) {
	p := projectWithChapters(3)
	assert.Empty(t, PreviousRecap(p, p.Chapters[0]))
	assert.Empty(t, PreviousRecap(p, p.Chapters[1]), "draft predecessor has no recap")

	require.NoError(t, p.Chapters[0].CompleteGeneration("text", "Mira found the key.", nil))
	assert.Equal(t, "Mira found the key.", PreviousRecap(p, p.Chapters[1]))
	assert.Empty(t, PreviousRecap(p, p.Chapters[2]))
}

func TestMergeIntroducedAuto(t *testing.T) {
	tr := trackerWith("AUTO")
	assert.Equal(t, PolicyAuto, tr.Policy())
	p := projectWithChapters(1)

	report := tr.MergeIntroduced(p, p.Chapters[0], []string{"Mira", "protagonist", " ", "MIRA"})
	assert.Equal(t, []string{"Mira"}, report.Merged)
	assert.Equal(t, []string{"protagonist", "MIRA"}, report.Duplicates)
	assert.Empty(t, p.PendingEntities)
	require.NotNil(t, p.EntityByName("mira"))
	assert.Equal(t, entity.EntityTypeCharacter, p.EntityByName("mira").Type)
}

func TestMergeIntroducedManual(t *testing.T) {
	tr := trackerWith("")
	assert.Equal(t, PolicyManual, tr.Policy())
	p := projectWithChapters(1)
	before := len(p.Entities)

	report := tr.MergeIntroduced(p, p.Chapters[0], []string{"Mira", "Old Tom"})
	assert.Equal(t, []string{"Mira", "Old Tom"}, report.Pending)
	assert.Len(t, p.Entities, before)
	require.Len(t, p.PendingEntities, 2)

	// 已在待确认列表中的名称不会重复加入
	report = tr.MergeIntroduced(p, p.Chapters[0], []string{"mira"})
	assert.Equal(t, []string{"mira"}, report.Duplicates)

	assert.Equal(t, []string{"Mira"}, ApprovePending(p, []string{"MIRA"}))
	assert.Len(t, p.Entities, before+1)
	assert.Equal(t, []string{"Old Tom"}, DismissPending(p, nil))
	assert.Empty(t, p.PendingEntities)
}
