// Package continuity 维护章节间的连续性：上一章回顾的传递与新实体的合并策略。
// Tracker 的写方法只在工作区单写者事务内调用。
package continuity

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"hydraskript-api/internal/config"
	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/pkg/metrics"
)

// 合并策略
const (
	// PolicyAuto 生成成功后直接并入项目实体快照
	PolicyAuto = "auto"
	// PolicyManual 进入待确认列表，由作者批准或忽略
	PolicyManual = "manual"
)

// MergeReport 一次合并的结果
type MergeReport struct {
	Merged     []string `json:"merged,omitempty"`
	Pending    []string `json:"pending,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// Tracker 连续性追踪
type Tracker struct {
	policy string
	newID  func() string
}

// NewTracker 按配置创建，未知策略按 manual 处理
func NewTracker(cfg *config.Config, newID func() string) *Tracker {
	policy := PolicyManual
	if cfg != nil && strings.EqualFold(cfg.Features.EntityMerge.Policy, PolicyAuto) {
		policy = PolicyAuto
	}
	return &Tracker{policy: policy, newID: newID}
}

// Policy 当前合并策略
func (t *Tracker) Policy() string {
	return t.policy
}

// PreviousRecap 返回上一章的回顾，上一章未生成时为空
func PreviousRecap(p *entity.BookProject, ch *entity.Chapter) string {
	if p == nil || ch == nil || ch.Number <= 1 {
		return ""
	}
	prev := p.ChapterByNumber(ch.Number - 1)
	if prev == nil || !prev.IsGenerated() {
		return ""
	}
	return strings.TrimSpace(prev.RecapForNext)
}

// MergeIntroduced 按策略处理章节新引入的实体名；快照或待确认列表中已有的名称记为重复
func (t *Tracker) MergeIntroduced(p *entity.BookProject, ch *entity.Chapter, names []string) MergeReport {
	var report MergeReport
	fold := cases.Fold()
	known := make(map[string]struct{}, len(p.Entities)+len(p.PendingEntities))
	for _, e := range p.Entities {
		known[fold.String(e.Name)] = struct{}{}
	}
	for _, e := range p.PendingEntities {
		known[fold.String(e.Name)] = struct{}{}
	}

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := fold.String(name)
		if _, ok := known[key]; ok {
			report.Duplicates = append(report.Duplicates, name)
			metrics.EntitiesMerged.WithLabelValues("duplicate").Inc()
			continue
		}
		known[key] = struct{}{}

		e := entity.NewStoryEntity(t.newID(), entity.EntityTypeCharacter, name,
			fmt.Sprintf("Introduced in chapter %d: %s", ch.Number, ch.Title))
		if t.policy == PolicyAuto {
			p.Entities = append(p.Entities, e)
			report.Merged = append(report.Merged, name)
			metrics.EntitiesMerged.WithLabelValues("merged").Inc()
		} else {
			p.PendingEntities = append(p.PendingEntities, e)
			report.Pending = append(report.Pending, name)
			metrics.EntitiesMerged.WithLabelValues("pending").Inc()
		}
	}
	return report
}

// ApprovePending 将待确认实体并入快照；names 为空时全部批准。返回批准的名称。
func ApprovePending(p *entity.BookProject, names []string) []string {
	approved, rest := partitionPending(p.PendingEntities, names)
	now := time.Now()
	out := make([]string, 0, len(approved))
	for _, e := range approved {
		if p.EntityByName(e.Name) != nil {
			continue
		}
		e.UpdatedAt = now
		p.Entities = append(p.Entities, e)
		out = append(out, e.Name)
	}
	p.PendingEntities = rest
	return out
}

// DismissPending 丢弃待确认实体；names 为空时全部丢弃。返回丢弃的名称。
func DismissPending(p *entity.BookProject, names []string) []string {
	dismissed, rest := partitionPending(p.PendingEntities, names)
	p.PendingEntities = rest
	out := make([]string, 0, len(dismissed))
	for _, e := range dismissed {
		out = append(out, e.Name)
	}
	return out
}

func partitionPending(pending []*entity.StoryEntity, names []string) (picked, rest []*entity.StoryEntity) {
	if len(names) == 0 {
		return pending, nil
	}
	fold := cases.Fold()
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[fold.String(strings.TrimSpace(n))] = struct{}{}
	}
	for _, e := range pending {
		if _, ok := want[fold.String(e.Name)]; ok {
			picked = append(picked, e)
		} else {
			rest = append(rest, e)
		}
	}
	return picked, rest
}
