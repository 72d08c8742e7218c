package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/monthlies/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's generated playlists without changing anything.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.prepare(cmd)
	if err != nil {
		return err
	}

	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	generated, scanned, err := engine.Scan(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to scan playlists: %w", err)
	}

	r.logger.Debug("listed playlists", "total", scanned, "generated", len(generated))

	if cmd.Bool("json") {
		return formatter.WritePlaylists(r.output, formatter.JSON, generated)
	}
	return formatter.WritePlaylists(r.output, formatter.Text, generated)
}
