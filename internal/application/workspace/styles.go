package workspace

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch"

	"hydraskript-api/internal/domain/entity"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// ListStyles 风格档案列表
func (w *Workspace) ListStyles(ctx context.Context) ([]*entity.StyleProfile, error) {
	if _, err := w.Session(ctx); err != nil {
		return nil, err
	}
	styles, err := w.store.ListStyles(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return styles, nil
}

// Style 按 ID 读取风格档案
func (w *Workspace) Style(ctx context.Context, id string) (*entity.StyleProfile, error) {
	if _, err := w.Session(ctx); err != nil {
		return nil, err
	}
	style, err := w.store.GetStyle(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if style == nil {
		return nil, apperrors.ErrStyleNotFound.WithDetail(id)
	}
	return style, nil
}

// ActiveStyle 当前激活的风格，激活的档案丢失时退回默认风格
func (w *Workspace) ActiveStyle(ctx context.Context) (*entity.StyleProfile, error) {
	s, err := w.Session(ctx)
	if err != nil {
		return nil, err
	}
	style, err := w.store.GetStyle(ctx, s.ActiveStyleID)
	if err != nil {
		return nil, storageError(err)
	}
	if style == nil {
		logger.Warn(ctx, "active style missing, falling back to default", "style_id", s.ActiveStyleID)
		return entity.DefaultStyleProfile(), nil
	}
	return style, nil
}

// SaveStyle 新增或覆盖风格档案，ID 为空时分配新 ID
func (w *Workspace) SaveStyle(ctx context.Context, style *entity.StyleProfile) (*entity.StyleProfile, error) {
	if style == nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("style is required")
	}
	cp := style.Clone()
	cp.Normalize()
	if cp.Name == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("style name is required")
	}
	if strings.TrimSpace(cp.ID) == "" {
		cp.ID = w.newID()
	}
	cp.UpdatedAt = time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.loadSessionLocked(ctx); err != nil {
		return nil, err
	}
	if err := w.store.SaveStyle(ctx, cp); err != nil {
		return nil, storageError(err)
	}
	return cp, nil
}

// ActivateStyle 切换激活风格
func (w *Workspace) ActivateStyle(ctx context.Context, id string) (*entity.StyleProfile, error) {
	style, err := w.Style(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := w.Update(ctx, func(tx *Tx) error {
		tx.Session.ActiveStyleID = style.ID
		return nil
	}); err != nil {
		return nil, err
	}
	return style, nil
}

// PatchActiveStyle 以 JSON Merge Patch 更新激活风格，ID 不可修改
func (w *Workspace) PatchActiveStyle(ctx context.Context, patch []byte) (*entity.StyleProfile, error) {
	style, err := w.ActiveStyle(ctx)
	if err != nil {
		return nil, err
	}
	original, err := json.Marshal(style)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid merge patch: " + err.Error())
	}

	var updated entity.StyleProfile
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, apperrors.ErrInvalidParam.WithDetail("invalid style fields: " + err.Error())
	}
	updated.ID = style.ID
	return w.SaveStyle(ctx, &updated)
}
