package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/domain/repository"
)

var _ repository.WorkspaceStore = (*WorkspaceStore)(nil)

// WorkspaceStore 基于 Redis 的工作区存储
// 风格/条目/项目各存一个 hash（id -> JSON），条目顺序额外记录在有序集合中
type WorkspaceStore struct {
	client *Client
	prefix string
	group  singleflight.Group
}

// NewWorkspaceStore 创建 Redis 工作区存储
func NewWorkspaceStore(client *Client, prefix string) *WorkspaceStore {
	if prefix == "" {
		prefix = "hydraskript"
	}
	return &WorkspaceStore{client: client, prefix: prefix}
}

func (s *WorkspaceStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// ListStyles 获取全部风格档案
func (s *WorkspaceStore) ListStyles(ctx context.Context) ([]*entity.StyleProfile, error) {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.ListStyles")
	defer span.End()

	raw, err := s.client.rdb.HGetAll(ctx, s.key("styles")).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}

	out := make([]*entity.StyleProfile, 0, len(raw))
	for id, v := range raw {
		var style entity.StyleProfile
		if err := json.Unmarshal([]byte(v), &style); err != nil {
			return nil, fmt.Errorf("failed to decode style %s: %w", id, err)
		}
		out = append(out, &style)
	}
	// 默认风格置顶，其余按名称
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == entity.DefaultStyleID || out[j].ID == entity.DefaultStyleID {
			return out[i].ID == entity.DefaultStyleID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetStyle 根据 ID 获取风格档案
func (s *WorkspaceStore) GetStyle(ctx context.Context, id string) (*entity.StyleProfile, error) {
	var style entity.StyleProfile
	found, err := s.hget(ctx, s.key("styles"), id, &style)
	if err != nil || !found {
		return nil, err
	}
	return &style, nil
}

// SaveStyle 新增或覆盖风格档案
func (s *WorkspaceStore) SaveStyle(ctx context.Context, style *entity.StyleProfile) error {
	return s.hset(ctx, s.key("styles"), style.ID, style)
}

// ListEntities 获取全部条目，按写入顺序
func (s *WorkspaceStore) ListEntities(ctx context.Context) ([]*entity.StoryEntity, error) {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.ListEntities")
	defer span.End()

	ids, err := s.client.rdb.ZRange(ctx, s.key("entities", "order"), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list entity order: %w", err)
	}
	if len(ids) == 0 {
		return []*entity.StoryEntity{}, nil
	}

	vals, err := s.client.rdb.HMGet(ctx, s.key("entities"), ids...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	out := make([]*entity.StoryEntity, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// 顺序集合与 hash 短暂不一致时跳过
			continue
		}
		var e entity.StoryEntity
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, fmt.Errorf("failed to decode entity %s: %w", ids[i], err)
		}
		out = append(out, &e)
	}
	return out, nil
}

// SaveEntity 新增或覆盖条目
func (s *WorkspaceStore) SaveEntity(ctx context.Context, e *entity.StoryEntity) error {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.SaveEntity",
		trace.WithAttributes(attribute.String("entity.id", e.ID)))
	defer span.End()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	pipe := s.client.rdb.TxPipeline()
	pipe.HSet(ctx, s.key("entities"), e.ID, data)
	pipe.ZAddNX(ctx, s.key("entities", "order"), redis.Z{
		Score:  float64(e.CreatedAt.UnixNano()),
		Member: e.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save entity: %w", err)
	}
	return nil
}

// DeleteEntity 删除条目
func (s *WorkspaceStore) DeleteEntity(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.DeleteEntity")
	defer span.End()

	pipe := s.client.rdb.TxPipeline()
	pipe.HDel(ctx, s.key("entities"), id)
	pipe.ZRem(ctx, s.key("entities", "order"), id)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	return nil
}

// SaveProject 新增或覆盖项目
func (s *WorkspaceStore) SaveProject(ctx context.Context, project *entity.BookProject) error {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.SaveProject",
		trace.WithAttributes(attribute.String("project.id", project.ID)))
	defer span.End()

	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	pipe := s.client.rdb.TxPipeline()
	pipe.Set(ctx, s.key("project", project.ID), data, 0)
	pipe.ZAdd(ctx, s.key("projects"), redis.Z{
		Score:  float64(project.UpdatedAt.Unix()),
		Member: project.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save project: %w", err)
	}
	// 写入之后开始的读取不能再合并到写入之前发出的 GET
	s.group.Forget(s.key("project", project.ID))
	return nil
}

// GetProject 根据 ID 获取项目，并发读取同一项目时合并为一次请求；SaveProject/DeleteProject 成功后会丢弃进行中的合并
func (s *WorkspaceStore) GetProject(ctx context.Context, id string) (*entity.BookProject, error) {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.GetProject",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	key := s.key("project", id)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.client.rdb.Get(ctx, key).Bytes()
	})
	span.SetAttributes(attribute.Bool("redis.shared", shared))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var project entity.BookProject
	if err := json.Unmarshal(v.([]byte), &project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &project, nil
}

// ListProjects 获取项目摘要，按更新时间倒序
func (s *WorkspaceStore) ListProjects(ctx context.Context) ([]entity.ProjectSummary, error) {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.ListProjects")
	defer span.End()

	ids, err := s.client.rdb.ZRevRange(ctx, s.key("projects"), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	out := make([]entity.ProjectSummary, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p.Summary())
		}
	}
	return out, nil
}

// DeleteProject 删除项目
func (s *WorkspaceStore) DeleteProject(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.DeleteProject",
		trace.WithAttributes(attribute.String("project.id", id)))
	defer span.End()

	pipe := s.client.rdb.TxPipeline()
	pipe.Del(ctx, s.key("project", id))
	pipe.ZRem(ctx, s.key("projects"), id)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}
	s.group.Forget(s.key("project", id))
	return nil
}

// LoadSession 读取会话
func (s *WorkspaceStore) LoadSession(ctx context.Context) (*entity.Session, error) {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.LoadSession")
	defer span.End()

	data, err := s.client.rdb.Get(ctx, s.key("session")).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var session entity.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// SaveSession 保存会话
func (s *WorkspaceStore) SaveSession(ctx context.Context, session *entity.Session) error {
	ctx, span := tracer.Start(ctx, "redis.WorkspaceStore.SaveSession")
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.rdb.Set(ctx, s.key("session"), data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Ping 检查存储可用性
func (s *WorkspaceStore) Ping(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *WorkspaceStore) hget(ctx context.Context, key, field string, dst any) (bool, error) {
	ctx, span := tracer.Start(ctx, "redis.HGet",
		trace.WithAttributes(attribute.String("redis.key", key), attribute.String("redis.field", field)))
	defer span.End()

	data, err := s.client.rdb.HGet(ctx, key, field).Bytes()
	if err != nil {
		if IsNil(err) {
			return false, nil
		}
		span.RecordError(err)
		return false, fmt.Errorf("failed to read %s/%s: %w", key, field, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", key, field, err)
	}
	return true, nil
}

func (s *WorkspaceStore) hset(ctx context.Context, key, field string, value any) error {
	ctx, span := tracer.Start(ctx, "redis.HSet",
		trace.WithAttributes(attribute.String("redis.key", key), attribute.String("redis.field", field)))
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", key, field, err)
	}
	if err := s.client.rdb.HSet(ctx, key, field, data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write %s/%s: %w", key, field, err)
	}
	return nil
}
