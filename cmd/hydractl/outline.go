package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"hydraskript-api/internal/application/pipeline"
	"hydraskript-api/internal/domain/entity"
	"hydraskript-api/internal/wire"
)

type outlineOptions struct {
	genesis     entity.GenesisInput
	projectType string
}

func newOutlineCmd(root *rootOptions) *cobra.Command {
	opts := &outlineOptions{}
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Generate a book outline and print it as JSON",
		Long:  `Runs the outline operation with the default style profile and story bible.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOutline(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.genesis.Topic, "topic", "", "book topic")
	f.StringVar(&opts.genesis.Genre, "genre", "", "genre")
	f.StringVar(&opts.genesis.Audience, "audience", "", "target audience")
	f.StringVar(&opts.genesis.Length, "length", "", "desired length")
	f.StringVar(&opts.genesis.Goals, "goals", "", "author goals")
	f.StringVar(&opts.projectType, "type", string(entity.ProjectTypeStandard), "project type (standard, kids, coloring)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runOutline(cmd *cobra.Command, root *rootOptions, opts *outlineOptions) error {
	pt, err := entity.ParseProjectType(opts.projectType)
	if err != nil {
		return err
	}
	in := opts.genesis
	in.ProjectType = pt

	cfg, err := root.load()
	if err != nil {
		return err
	}
	gateway := wire.InitializeGateway(cfg)

	outline, err := gateway.GenerateOutline(cmd.Context(),
		pipeline.OutlineInput(in, entity.DefaultStyleProfile(), entity.DefaultEntities()))
	if err != nil {
		return fmt.Errorf("generate outline: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outline)
}
