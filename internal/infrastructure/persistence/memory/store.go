// Package memory 提供进程内工作区存储实现
package memory

import (
	"context"
	"sort"
	"sync"

	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/domain/repository"
)

var _ repository.WorkspaceStore = (*Store)(nil)

// Store 内存工作区存储，读写均做深拷贝
type Store struct {
	mu          sync.RWMutex
	styles      map[string]*entity.StyleProfile
	styleOrder  []string
	entities    map[string]*entity.StoryEntity
	entityOrder []string
	projects    map[string]*entity.BookProject
	session     *entity.Session
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		styles:   make(map[string]*entity.StyleProfile),
		entities: make(map[string]*entity.StoryEntity),
		projects: make(map[string]*entity.BookProject),
	}
}

// ListStyles 获取全部风格档案
func (s *Store) ListStyles(_ context.Context) ([]*entity.StyleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.StyleProfile, 0, len(s.styleOrder))
	for _, id := range s.styleOrder {
		out = append(out, s.styles[id].Clone())
	}
	return out, nil
}

// GetStyle 根据 ID 获取风格档案
func (s *Store) GetStyle(_ context.Context, id string) (*entity.StyleProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.styles[id].Clone(), nil
}

// SaveStyle 新增或覆盖风格档案
func (s *Store) SaveStyle(_ context.Context, style *entity.StyleProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.styles[style.ID]; !ok {
		s.styleOrder = append(s.styleOrder, style.ID)
	}
	s.styles[style.ID] = style.Clone()
	return nil
}

// ListEntities 获取全部条目
func (s *Store) ListEntities(_ context.Context) ([]*entity.StoryEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.StoryEntity, 0, len(s.entityOrder))
	for _, id := range s.entityOrder {
		out = append(out, s.entities[id].Clone())
	}
	return out, nil
}

// SaveEntity 新增或覆盖条目
func (s *Store) SaveEntity(_ context.Context, e *entity.StoryEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[e.ID]; !ok {
		s.entityOrder = append(s.entityOrder, e.ID)
	}
	s.entities[e.ID] = e.Clone()
	return nil
}

// DeleteEntity 删除条目
func (s *Store) DeleteEntity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[id]; !ok {
		return nil
	}
	delete(s.entities, id)
	for i, v := range s.entityOrder {
		if v == id {
			s.entityOrder = append(s.entityOrder[:i], s.entityOrder[i+1:]...)
			break
		}
	}
	return nil
}

// SaveProject 新增或覆盖项目
func (s *Store) SaveProject(_ context.Context, project *entity.BookProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = project.Clone()
	return nil
}

// GetProject 根据 ID 获取项目
func (s *Store) GetProject(_ context.Context, id string) (*entity.BookProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[id].Clone(), nil
}

// ListProjects 获取项目摘要
func (s *Store) ListProjects(_ context.Context) ([]entity.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.ProjectSummary, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// DeleteProject 删除项目
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}

// LoadSession 读取会话
func (s *Store) LoadSession(_ context.Context) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone(), nil
}

// SaveSession 保存会话
func (s *Store) SaveSession(_ context.Context, session *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session.Clone()
	return nil
}

// Ping 内存存储始终可用
func (s *Store) Ping(_ context.Context) error {
	return nil
}
