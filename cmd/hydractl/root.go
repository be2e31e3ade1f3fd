package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hydraskript-api/internal/config"
	einoobs "hydraskript-api/internal/observability/eino"
	"hydraskript-api/pkg/logger"
)

type rootOptions struct {
	configDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "hydractl",
		Short:         "HydraSkript command line tools",
		Long:          `Generates outlines and narrates text with the same gateway the API uses.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configDir, "config", config.DefaultDir, "configuration directory")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newOutlineCmd(opts))
	cmd.AddCommand(newNarrateCmd(opts))
	return cmd
}

// load 加载配置并初始化日志与 Eino 回调
func (o *rootOptions) load() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(o.logLevel, "text")
	einoobs.Init()
	return cfg, nil
}
