// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	"hydraskript-api/internal/application/continuity"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/config"
	"hydraskript-api/internal/domain/repository"
	"hydraskript-api/internal/infrastructure/persistence/memory"
	"hydraskript-api/internal/infrastructure/persistence/postgres"
	"hydraskript-api/internal/infrastructure/persistence/redis"
	"hydraskript-api/internal/interfaces/http/handler"
	"hydraskript-api/internal/interfaces/http/middleware"
	"hydraskript-api/pkg/logger"
)

// ProvideRedisClient 提供 Redis 客户端。存储驱动不是 redis 且未启用缓存时返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if cfg.Storage.Driver != config.StorageRedis && !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		if cfg.Storage.Driver == config.StorageRedis {
			return nil, nil, err
		}
		logger.Warn(ctx, "redis not available, shared rate limiting disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideWorkspaceStore 按 storage.driver 选择工作区存储
func ProvideWorkspaceStore(ctx context.Context, cfg *config.Config, rc *redis.Client) (repository.WorkspaceStore, func(), error) {
	switch cfg.Storage.Driver {
	case "", config.StorageMemory:
		logger.Info(ctx, "workspace store ready", "driver", config.StorageMemory)
		return memory.NewStore(), func() {}, nil
	case config.StorageRedis:
		if rc == nil {
			return nil, nil, fmt.Errorf("storage driver redis requires a redis client")
		}
		logger.Info(ctx, "workspace store ready", "driver", config.StorageRedis, "prefix", cfg.Storage.KeyPrefix)
		return redis.NewWorkspaceStore(rc, cfg.Storage.KeyPrefix), func() {}, nil
	case config.StoragePostgres:
		client, err := postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "workspace store ready", "driver", config.StoragePostgres)
		return postgres.NewWorkspaceStore(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

// ProvideRateLimiter 有 Redis 时使用多实例共享限流，否则使用进程内限流
func ProvideRateLimiter(cfg *config.Config, rc *redis.Client) middleware.RateLimiter {
	rl := cfg.Security.RateLimit
	if rc == nil {
		return middleware.NewLocalLimiter(rl.RequestsPerSecond, rl.Burst)
	}
	prefix := cfg.Storage.KeyPrefix
	if prefix == "" {
		prefix = cfg.App.Name
	}
	keyFunc := func(clientKey, endpoint string) string {
		return redis.BuildRateLimitKey(prefix, clientKey, endpoint)
	}
	return middleware.NewSharedLimiter(redis.NewRateLimiter(rc), keyFunc, rl.RequestsPerSecond, rl.Burst)
}

// ProvideTracker 提供连续性追踪器
func ProvideTracker(cfg *config.Config, ws *workspace.Workspace) *continuity.Tracker {
	return continuity.NewTracker(cfg, ws.NewID)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, store repository.WorkspaceStore) *handler.HealthHandler {
	driver := cfg.Storage.Driver
	if driver == "" {
		driver = config.StorageMemory
	}
	return handler.NewHealthHandler(store, driver, cfg.App.Version)
}
