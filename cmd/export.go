package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tapedeck/internal/catalog"
	"tapedeck/internal/formatter"
)

// Export renders the artifact catalog to a file in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if r.config.Catalog.Path == "" {
		return fmt.Errorf("no catalog configured")
	}

	cat, err := catalog.Open(r.config.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	entries, err := cat.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list catalog: %w", err)
	}

	format := cmd.String("format")
	path := cmd.String("out")
	if path == "" {
		path = "catalog." + format
	}

	n, err := formatter.WriteExport(entries, format, path)
	if err != nil {
		return err
	}

	r.logger.Info("exported catalog", "entries", len(entries), "path", path)
	r.writePlainln("✓ Exported %d tracks to %s (%d bytes)", len(entries), path, n)
	return nil
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the artifact catalog to CSV, Markdown, or text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown, or text",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to export",
			},
		},
		Action: r.Export,
	}
}
