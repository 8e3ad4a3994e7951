package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"tapedeck/internal/catalog"
	"tapedeck/internal/shared"
)

// Setup writes a starter configuration file and initializes the work
// directory and catalog schema.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	r.logger.Info("wrote configuration", "path", path)

	cfg := r.config
	if err := os.MkdirAll(cfg.Storage.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	if cfg.Catalog.Path != "" {
		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize catalog: %w", err)
		}
		defer cat.Close()
		r.logger.Info("initialized catalog", "path", cfg.Catalog.Path)
	}

	r.writePlainln("✓ Setup complete. Edit %s and run 'tapedeck serve'.", path)
	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a starter config and initialize the work directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: r.Setup,
	}
}
