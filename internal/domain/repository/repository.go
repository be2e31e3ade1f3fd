// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"hydraskript-api/internal/domain/entity"
)

// StyleRepository 风格档案仓储
type StyleRepository interface {
	// ListStyles 获取全部风格档案
	ListStyles(ctx context.Context) ([]*entity.StyleProfile, error)

	// GetStyle 根据 ID 获取风格档案，不存在时返回 nil, nil
	GetStyle(ctx context.Context, id string) (*entity.StyleProfile, error)

	// SaveStyle 新增或覆盖风格档案
	SaveStyle(ctx context.Context, style *entity.StyleProfile) error
}

// BibleRepository 全局故事圣经仓储
type BibleRepository interface {
	// ListEntities 获取全部条目，按创建顺序
	ListEntities(ctx context.Context) ([]*entity.StoryEntity, error)

	// SaveEntity 新增或覆盖条目
	SaveEntity(ctx context.Context, e *entity.StoryEntity) error

	// DeleteEntity 删除条目，不存在时不报错
	DeleteEntity(ctx context.Context, id string) error
}

// ProjectRepository 书籍项目仓储
type ProjectRepository interface {
	// SaveProject 新增或覆盖项目（包含章节与实体快照）
	SaveProject(ctx context.Context, project *entity.BookProject) error

	// GetProject 根据 ID 获取项目，不存在时返回 nil, nil
	GetProject(ctx context.Context, id string) (*entity.BookProject, error)

	// ListProjects 获取项目摘要，按更新时间倒序
	ListProjects(ctx context.Context) ([]entity.ProjectSummary, error)

	// DeleteProject 删除项目，不存在时不报错
	DeleteProject(ctx context.Context, id string) error
}

// SessionRepository 会话状态仓储
type SessionRepository interface {
	// LoadSession 读取会话，不存在时返回 nil, nil
	LoadSession(ctx context.Context) (*entity.Session, error)

	// SaveSession 保存会话
	SaveSession(ctx context.Context, session *entity.Session) error
}

// WorkspaceStore 工作区存储，聚合全部仓储
type WorkspaceStore interface {
	StyleRepository
	BibleRepository
	ProjectRepository
	SessionRepository

	// Ping 检查存储可用性
	Ping(ctx context.Context) error
}
