package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hydraskript-api/internal/application/narration"
	"hydraskript-api/internal/wire"
)

type narrateOptions struct {
	voice string
	out   string
}

func newNarrateCmd(root *rootOptions) *cobra.Command {
	opts := &narrateOptions{}
	cmd := &cobra.Command{
		Use:   "narrate <file>",
		Short: "Narrate a .txt or .pdf file into a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNarrate(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.voice, "voice", narration.DefaultVoice, "prebuilt voice name")
	cmd.Flags().StringVarP(&opts.out, "out", "o", narration.DownloadName, "output WAV path")
	return cmd
}

func runNarrate(cmd *cobra.Command, root *rootOptions, opts *narrateOptions, path string) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	studio := wire.InitializeStudio(cfg)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := studio.LoadSource(filepath.Base(path), f)
	if err != nil {
		return err
	}
	audio, err := studio.Narrate(cmd.Context(), text, opts.voice)
	if err != nil {
		return fmt.Errorf("narrate: %w", err)
	}
	if err := os.WriteFile(opts.out, audio.WAV, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, voice %s)\n", opts.out, len(audio.WAV), audio.Voice)
	if audio.Truncated {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: text was truncated before synthesis")
	}
	return nil
}
