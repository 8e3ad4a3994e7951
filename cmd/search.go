package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tapedeck/internal/media"
)

// Search queries the source site from the command line and prints the
// candidate tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Cache.SearchLimit
	}

	resolver := media.NewResolver(media.ExecRunner{}, r.config.Tools, r.logger)
	results, err := resolver.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	if len(results) == 0 {
		return r.writePlainln("No results for %q", query)
	}
	for i, track := range results {
		if err := r.writePlainln("%2d. %s - %s\n    %s", i+1, track.Artist, track.Title, track.URL); err != nil {
			return err
		}
	}
	return nil
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the source site for tracks",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Action: r.Search,
	}
}
