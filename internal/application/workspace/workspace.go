// Package workspace 提供工作区聚合：风格档案、故事圣经、会话与项目状态。
// 所有写操作经同一把锁串行执行，项目与会话的变更只能通过 Update 提交。
package workspace

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/domain/repository"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// Workspace 工作区聚合服务
type Workspace struct {
	store repository.WorkspaceStore
	newID func() string

	mu      sync.Mutex
	session *entity.Session
}

// New 创建工作区
func New(store repository.WorkspaceStore) *Workspace {
	return &Workspace{
		store: store,
		newID: uuid.NewString,
	}
}

// NewID 生成实体 ID
func (w *Workspace) NewID() string {
	return w.newID()
}

// Ping 检查底层存储
func (w *Workspace) Ping(ctx context.Context) error {
	return w.store.Ping(ctx)
}

// Tx 一次串行写入内可见的状态。Session 可直接修改，项目变更经 SaveProject/DeleteProject 暂存，fn 成功后统一落库。
type Tx struct {
	ctx     context.Context
	store   repository.WorkspaceStore
	Session *entity.Session
	saves   map[string]*entity.BookProject
	order   []string
	deletes []string
}

// Project 读取项目副本，优先返回本事务内已暂存的版本
func (tx *Tx) Project(id string) (*entity.BookProject, error) {
	if p, ok := tx.saves[id]; ok {
		return p, nil
	}
	p, err := tx.store.GetProject(tx.ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if p == nil {
		return nil, apperrors.ErrProjectNotFound.WithDetail(id)
	}
	return p, nil
}

// CurrentProject 读取当前项目
func (tx *Tx) CurrentProject() (*entity.BookProject, error) {
	if tx.Session.CurrentProjectID == "" {
		return nil, apperrors.ErrProjectNotFound.WithDetail("no current project")
	}
	return tx.Project(tx.Session.CurrentProjectID)
}

// SaveProject 暂存项目
func (tx *Tx) SaveProject(p *entity.BookProject) {
	if _, ok := tx.saves[p.ID]; !ok {
		tx.order = append(tx.order, p.ID)
	}
	tx.saves[p.ID] = p
}

// DeleteProject 暂存删除
func (tx *Tx) DeleteProject(id string) {
	delete(tx.saves, id)
	tx.deletes = append(tx.deletes, id)
}

// Update 以单写者方式执行 fn；fn 返回错误时不写入任何变更
func (w *Workspace) Update(ctx context.Context, fn func(tx *Tx) error) (*entity.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, err := w.loadSessionLocked(ctx)
	if err != nil {
		return nil, err
	}

	tx := &Tx{
		ctx:     ctx,
		store:   w.store,
		Session: current.Clone(),
		saves:   make(map[string]*entity.BookProject),
	}
	if err := fn(tx); err != nil {
		return nil, err
	}

	for _, id := range tx.order {
		p, ok := tx.saves[id]
		if !ok {
			continue
		}
		p.Touch()
		if err := w.store.SaveProject(ctx, p); err != nil {
			return nil, storageError(err)
		}
	}
	for _, id := range tx.deletes {
		if err := w.store.DeleteProject(ctx, id); err != nil {
			return nil, storageError(err)
		}
	}
	if err := w.store.SaveSession(ctx, tx.Session); err != nil {
		return nil, storageError(err)
	}
	w.session = tx.Session
	return tx.Session.Clone(), nil
}

// View 在同一把锁内只读访问状态，暂存的变更会被丢弃
func (w *Workspace) View(ctx context.Context, fn func(tx *Tx) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, err := w.loadSessionLocked(ctx)
	if err != nil {
		return err
	}
	return fn(&Tx{
		ctx:     ctx,
		store:   w.store,
		Session: current.Clone(),
		saves:   make(map[string]*entity.BookProject),
	})
}

// Session 返回会话副本
func (w *Workspace) Session(ctx context.Context) (*entity.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.loadSessionLocked(ctx)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// CurrentProject 返回当前项目
func (w *Workspace) CurrentProject(ctx context.Context) (*entity.BookProject, error) {
	s, err := w.Session(ctx)
	if err != nil {
		return nil, err
	}
	if s.CurrentProjectID == "" {
		return nil, apperrors.ErrProjectNotFound.WithDetail("no current project")
	}
	return w.Project(ctx, s.CurrentProjectID)
}

// Project 按 ID 读取项目
func (w *Workspace) Project(ctx context.Context, id string) (*entity.BookProject, error) {
	p, err := w.store.GetProject(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if p == nil {
		return nil, apperrors.ErrProjectNotFound.WithDetail(id)
	}
	return p, nil
}

// ListProjects 项目列表
func (w *Workspace) ListProjects(ctx context.Context) ([]entity.ProjectSummary, error) {
	list, err := w.store.ListProjects(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

// OpenProject 将已保存项目设为当前项目并进入工作台
func (w *Workspace) OpenProject(ctx context.Context, id string) (*entity.BookProject, error) {
	var opened *entity.BookProject
	_, err := w.Update(ctx, func(tx *Tx) error {
		p, err := tx.Project(id)
		if err != nil {
			return err
		}
		tx.Session.CurrentProjectID = p.ID
		tx.Session.Stage = entity.StageWorkspace
		tx.Session.ActiveChapterID = ""
		if first := p.ChapterByNumber(1); first != nil {
			tx.Session.ActiveChapterID = first.ID
		}
		opened = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "project opened", "project_id", id)
	return opened, nil
}

// loadSessionLocked 首次访问时从存储加载会话；空工作区写入默认风格与默认圣经条目
func (w *Workspace) loadSessionLocked(ctx context.Context) (*entity.Session, error) {
	if w.session != nil {
		return w.session, nil
	}
	s, err := w.store.LoadSession(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	if s == nil {
		if err := w.seedLocked(ctx); err != nil {
			return nil, err
		}
		s = entity.NewSession()
		if err := w.store.SaveSession(ctx, s); err != nil {
			return nil, storageError(err)
		}
	}
	w.session = s
	return s, nil
}

func (w *Workspace) seedLocked(ctx context.Context) error {
	style, err := w.store.GetStyle(ctx, entity.DefaultStyleID)
	if err != nil {
		return storageError(err)
	}
	if style == nil {
		if err := w.store.SaveStyle(ctx, entity.DefaultStyleProfile()); err != nil {
			return storageError(err)
		}
	}

	existing, err := w.store.ListEntities(ctx)
	if err != nil {
		return storageError(err)
	}
	if len(existing) == 0 {
		for _, e := range entity.DefaultEntities() {
			if err := w.store.SaveEntity(ctx, e); err != nil {
				return storageError(err)
			}
		}
	}
	logger.Info(ctx, "workspace initialized with defaults")
	return nil
}

func storageError(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Wrap(err, apperrors.CodeStorageError, "workspace storage failed")
}
