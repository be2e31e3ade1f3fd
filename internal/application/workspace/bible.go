package workspace

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"hydraskript-api/internal/domain/entity"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// EntityFilter 故事圣经筛选条件
type EntityFilter struct {
	// Type 为空时不按类型筛选
	Type entity.StoryEntityType
	// Query 名称包含匹配，大小写不敏感
	Query string
}

// bibleDocument YAML 导入导出格式
type bibleDocument struct {
	Entities []*entity.StoryEntity `yaml:"entities"`
}

// Entities 全部故事圣经条目
func (w *Workspace) Entities(ctx context.Context) ([]*entity.StoryEntity, error) {
	if _, err := w.Session(ctx); err != nil {
		return nil, err
	}
	list, err := w.store.ListEntities(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

// ListEntities 按类型页签与名称搜索筛选
func (w *Workspace) ListEntities(ctx context.Context, f EntityFilter) ([]*entity.StoryEntity, error) {
	all, err := w.Entities(ctx)
	if err != nil {
		return nil, err
	}
	// Caser 有状态，不能跨 goroutine 共享
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(f.Query))
	out := make([]*entity.StoryEntity, 0, len(all))
	for _, e := range all {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if query != "" && !strings.Contains(fold.String(e.Name), query) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// AddEntity 新增条目
func (w *Workspace) AddEntity(ctx context.Context, entityType, name, description string) (*entity.StoryEntity, error) {
	t, ok := entity.ParseStoryEntityType(entityType)
	if !ok {
		return nil, apperrors.ErrInvalidParam.WithDetail("unknown entity type: " + entityType)
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("entity name is required")
	}
	e := entity.NewStoryEntity(w.newID(), t, name, strings.TrimSpace(description))

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.loadSessionLocked(ctx); err != nil {
		return nil, err
	}
	if err := w.store.SaveEntity(ctx, e); err != nil {
		return nil, storageError(err)
	}
	return e, nil
}

// PatchEntity 以 JSON Merge Patch 更新条目
func (w *Workspace) PatchEntity(ctx context.Context, id string, patch []byte) (*entity.StoryEntity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.loadSessionLocked(ctx); err != nil {
		return nil, err
	}

	current, err := w.findEntityLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	original, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid merge patch: " + err.Error())
	}

	var updated entity.StoryEntity
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid entity fields: " + err.Error())
	}
	t, ok := entity.ParseStoryEntityType(string(updated.Type))
	if !ok {
		return nil, apperrors.ErrInvalidParam.WithDetail("unknown entity type: " + string(updated.Type))
	}
	updated.Type = t
	updated.Name = strings.TrimSpace(updated.Name)
	if updated.Name == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("entity name is required")
	}
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now()

	if err := w.store.SaveEntity(ctx, &updated); err != nil {
		return nil, storageError(err)
	}
	return &updated, nil
}

// DeleteEntity 删除条目
func (w *Workspace) DeleteEntity(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.loadSessionLocked(ctx); err != nil {
		return err
	}

	if _, err := w.findEntityLocked(ctx, id); err != nil {
		return err
	}
	if err := w.store.DeleteEntity(ctx, id); err != nil {
		return storageError(err)
	}
	return nil
}

// ExportEntitiesYAML 导出全部条目
func (w *Workspace) ExportEntitiesYAML(ctx context.Context) ([]byte, error) {
	all, err := w.Entities(ctx)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(&bibleDocument{Entities: all})
}

// ImportEntitiesYAML 导入条目；replace 为 true 时先清空现有圣经。
// 同 ID 覆盖，缺少 ID 的条目分配新 ID。返回导入条数。
func (w *Workspace) ImportEntitiesYAML(ctx context.Context, data []byte, replace bool) (int, error) {
	var doc bibleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, apperrors.ErrInvalidParam.WithDetail("invalid bible yaml: " + err.Error())
	}

	now := time.Now()
	imported := make([]*entity.StoryEntity, 0, len(doc.Entities))
	for i, e := range doc.Entities {
		if e == nil {
			continue
		}
		t, ok := entity.ParseStoryEntityType(string(e.Type))
		if !ok {
			return 0, apperrors.ErrInvalidParam.WithDetail("entities[" + strconv.Itoa(i) + "]: unknown type " + string(e.Type))
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return 0, apperrors.ErrInvalidParam.WithDetail("entities[" + strconv.Itoa(i) + "]: name is required")
		}
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = w.newID()
		}
		imported = append(imported, &entity.StoryEntity{
			ID:          id,
			Type:        t,
			Name:        name,
			Description: strings.TrimSpace(e.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.loadSessionLocked(ctx); err != nil {
		return 0, err
	}

	if replace {
		existing, err := w.store.ListEntities(ctx)
		if err != nil {
			return 0, storageError(err)
		}
		for _, e := range existing {
			if err := w.store.DeleteEntity(ctx, e.ID); err != nil {
				return 0, storageError(err)
			}
		}
	}
	for _, e := range imported {
		if err := w.store.SaveEntity(ctx, e); err != nil {
			return 0, storageError(err)
		}
	}
	logger.Info(ctx, "story bible imported", "count", len(imported), "replace", replace)
	return len(imported), nil
}

func (w *Workspace) findEntityLocked(ctx context.Context, id string) (*entity.StoryEntity, error) {
	all, err := w.store.ListEntities(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.ErrEntityNotFound.WithDetail(id)
}
