//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"hydraskript-api/internal/application/generation"
	"hydraskript-api/internal/application/narration"
	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/application/workspace"
	"hydraskript-api/internal/config"
	"hydraskript-api/internal/infrastructure/llm"
	"hydraskript-api/internal/interfaces/http/handler"
	"hydraskript-api/internal/interfaces/http/router"
	workflowport "hydraskript-api/internal/workflow/port"
	workflowprompt "hydraskript-api/internal/workflow/prompt"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		StorageSet,
		GenerationSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeGateway 仅初始化生成网关（用于命令行工具）
func InitializeGateway(cfg *config.Config) *generation.Gateway {
	wire.Build(GenerationSet)
	return nil
}

// InitializeStudio 仅初始化有声书工作室（用于命令行工具）
func InitializeStudio(cfg *config.Config) *narration.Studio {
	wire.Build(
		GenerationSet,
		narration.NewStudio,
		wire.Bind(new(narration.Synthesizer), new(*generation.Gateway)),
	)
	return nil
}

// StorageSet 存储提供者集合
var StorageSet = wire.NewSet(
	ProvideRedisClient,
	ProvideWorkspaceStore,
	ProvideRateLimiter,
	workspace.New,
)

// GenerationSet 生成网关提供者集合
var GenerationSet = wire.NewSet(
	llm.NewEinoFactory,
	llm.NewGenaiBackend,
	llm.NewStructuredGenerator,
	workflowprompt.NewRegistry,
	generation.NewGateway,
	wire.Bind(new(workflowport.ImageRenderer), new(*llm.GenaiBackend)),
	wire.Bind(new(workflowport.SpeechSynthesizer), new(*llm.GenaiBackend)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideTracker,
	pipeline.New,
	narration.NewStudio,
	wire.Bind(new(pipeline.Generator), new(*generation.Gateway)),
	wire.Bind(new(narration.Synthesizer), new(*generation.Gateway)),
	ProvideHealthHandler,
	handler.NewGenesisHandler,
	handler.NewProjectHandler,
	handler.NewChapterHandler,
	handler.NewStyleHandler,
	handler.NewEntityHandler,
	handler.NewNarrationHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
