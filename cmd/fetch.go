package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tapedeck/internal/fingerprint"
	"tapedeck/internal/media"
	"tapedeck/internal/store"
)

// Fetch converts a single track URL to an MP3 in the local work directory.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	locator := cmd.Args().First()
	if locator == "" {
		return fmt.Errorf("track URL is required")
	}

	workDir := cmd.String("out")
	if workDir == "" {
		workDir = r.config.Storage.WorkDir
	}

	st, err := store.NewLocalStore(workDir, "file://"+workDir)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	resolver := media.NewResolver(media.ExecRunner{}, r.config.Tools, r.logger)
	converter, err := media.NewConverter(media.ExecRunner{}, resolver, st, workDir, r.config.Tools, r.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize converter: %w", err)
	}

	fp := fingerprint.New(locator)
	r.logger.Info("fetching", "url", locator, "fingerprint", fp)

	artifact, err := converter.Convert(ctx, locator, fp)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	r.writePlainln("✓ %s - %s", artifact.Meta.Artist, artifact.Meta.Title)
	r.writePlainln("  %s (%d bytes)", artifact.Location, artifact.SizeBytes)
	return nil
}

func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch and convert a single track URL to MP3",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory for the MP3 artifact",
			},
		},
		Action: r.Fetch,
	}
}
