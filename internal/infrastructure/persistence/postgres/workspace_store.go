// Package postgres 提供 PostgreSQL 工作区存储实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/domain/repository"
)

var _ repository.WorkspaceStore = (*WorkspaceStore)(nil)

// sessionRowID 单工作区只保留一行会话
const sessionRowID = "default"

// styleRecord 风格档案表
type styleRecord struct {
	ID        string               `gorm:"type:varchar(64);primaryKey"`
	Name      string               `gorm:"type:varchar(255)"`
	Document  *entity.StyleProfile `gorm:"type:jsonb;serializer:json"`
	UpdatedAt time.Time            `gorm:"autoUpdateTime"`
}

func (styleRecord) TableName() string { return "style_profiles" }

// entityRecord 故事圣经条目表
type entityRecord struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	Type        string `gorm:"type:varchar(32);index"`
	Name        string `gorm:"type:varchar(255)"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (entityRecord) TableName() string { return "story_entities" }

// projectRecord 书籍项目表，项目整体以 jsonb 保存，摘要字段冗余便于列表查询
type projectRecord struct {
	ID           string              `gorm:"type:varchar(64);primaryKey"`
	Type         string              `gorm:"type:varchar(32)"`
	Title        string              `gorm:"type:varchar(255)"`
	Genre        string              `gorm:"type:varchar(255)"`
	ChapterCount int                 `gorm:"not null;default:0"`
	Progress     int                 `gorm:"not null;default:0"`
	Document     *entity.BookProject `gorm:"type:jsonb;serializer:json"`
	UpdatedAt    time.Time           `gorm:"index"`
}

func (projectRecord) TableName() string { return "book_projects" }

// sessionRecord 会话表
type sessionRecord struct {
	ID        string          `gorm:"type:varchar(64);primaryKey"`
	Document  *entity.Session `gorm:"type:jsonb;serializer:json"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (sessionRecord) TableName() string { return "workspace_sessions" }

// WorkspaceStore 基于 GORM 的工作区存储
type WorkspaceStore struct {
	client *Client
}

// NewWorkspaceStore 创建 PostgreSQL 工作区存储
func NewWorkspaceStore(client *Client) *WorkspaceStore {
	return &WorkspaceStore{client: client}
}

func (s *WorkspaceStore) db(ctx context.Context) *gorm.DB {
	return s.client.db.WithContext(ctx)
}

// upsert 按主键覆盖写入
func (s *WorkspaceStore) upsert(ctx context.Context, value any) error {
	return s.db(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

// ListStyles 获取全部风格档案
func (s *WorkspaceStore) ListStyles(ctx context.Context) ([]*entity.StyleProfile, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.ListStyles")
	defer span.End()

	var rows []styleRecord
	if err := s.db(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	out := make([]*entity.StyleProfile, 0, len(rows))
	for i := range rows {
		if rows[i].Document != nil {
			out = append(out, rows[i].Document)
		}
	}
	return out, nil
}

// GetStyle 根据 ID 获取风格档案
func (s *WorkspaceStore) GetStyle(ctx context.Context, id string) (*entity.StyleProfile, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.GetStyle")
	defer span.End()

	var row styleRecord
	if err := s.db(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get style: %w", err)
	}
	return row.Document, nil
}

// SaveStyle 新增或覆盖风格档案
func (s *WorkspaceStore) SaveStyle(ctx context.Context, style *entity.StyleProfile) error {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.SaveStyle")
	defer span.End()

	row := &styleRecord{ID: style.ID, Name: style.Name, Document: style}
	if err := s.upsert(ctx, row); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save style: %w", err)
	}
	return nil
}

// ListEntities 获取全部条目，按创建顺序
func (s *WorkspaceStore) ListEntities(ctx context.Context) ([]*entity.StoryEntity, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.ListEntities")
	defer span.End()

	var rows []entityRecord
	if err := s.db(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	out := make([]*entity.StoryEntity, 0, len(rows))
	for _, r := range rows {
		out = append(out, &entity.StoryEntity{
			ID:          r.ID,
			Type:        entity.StoryEntityType(r.Type),
			Name:        r.Name,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out, nil
}

// SaveEntity 新增或覆盖条目
func (s *WorkspaceStore) SaveEntity(ctx context.Context, e *entity.StoryEntity) error {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.SaveEntity")
	defer span.End()

	row := &entityRecord{
		ID:          e.ID,
		Type:        string(e.Type),
		Name:        e.Name,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if err := s.upsert(ctx, row); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save entity: %w", err)
	}
	return nil
}

// DeleteEntity 删除条目
func (s *WorkspaceStore) DeleteEntity(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.DeleteEntity")
	defer span.End()

	if err := s.db(ctx).Delete(&entityRecord{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}

// SaveProject 新增或覆盖项目
func (s *WorkspaceStore) SaveProject(ctx context.Context, project *entity.BookProject) error {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.SaveProject")
	defer span.End()

	row := &projectRecord{
		ID:           project.ID,
		Type:         string(project.Type),
		Title:        project.Title,
		Genre:        project.Genre,
		ChapterCount: len(project.Chapters),
		Progress:     project.Progress(),
		Document:     project,
		UpdatedAt:    project.UpdatedAt,
	}
	if err := s.upsert(ctx, row); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// GetProject 根据 ID 获取项目
func (s *WorkspaceStore) GetProject(ctx context.Context, id string) (*entity.BookProject, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.GetProject")
	defer span.End()

	var row projectRecord
	if err := s.db(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return row.Document, nil
}

// ListProjects 获取项目摘要，按更新时间倒序
func (s *WorkspaceStore) ListProjects(ctx context.Context) ([]entity.ProjectSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.ListProjects")
	defer span.End()

	var rows []projectRecord
	err := s.db(ctx).
		Select("id", "type", "title", "genre", "chapter_count", "progress", "updated_at").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	out := make([]entity.ProjectSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.ProjectSummary{
			ID:           r.ID,
			Type:         entity.ProjectType(r.Type),
			Title:        r.Title,
			Genre:        r.Genre,
			ChapterCount: r.ChapterCount,
			Progress:     r.Progress,
			UpdatedAt:    r.UpdatedAt,
		})
	}
	return out, nil
}

// DeleteProject 删除项目
func (s *WorkspaceStore) DeleteProject(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.DeleteProject")
	defer span.End()

	if err := s.db(ctx).Delete(&projectRecord{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// LoadSession 读取会话
func (s *WorkspaceStore) LoadSession(ctx context.Context) (*entity.Session, error) {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.LoadSession")
	defer span.End()

	var row sessionRecord
	if err := s.db(ctx).First(&row, "id = ?", sessionRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return row.Document, nil
}

// SaveSession 保存会话
func (s *WorkspaceStore) SaveSession(ctx context.Context, session *entity.Session) error {
	ctx, span := tracer.Start(ctx, "postgres.WorkspaceStore.SaveSession")
	defer span.End()

	if err := s.upsert(ctx, &sessionRecord{ID: sessionRowID, Document: session}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Ping 检查存储可用性
func (s *WorkspaceStore) Ping(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}
