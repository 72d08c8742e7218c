package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/monthlies/internal/formatter"
	"github.com/desertthunder/monthlies/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate creates one playlist per month from the user's saved tracks.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")

	engine, err := r.prepare(cmd)
	if err != nil {
		return err
	}

	var userID string
	if !dryRun {
		if userID, err = r.userID(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("generating monthly playlists", "user", userID, "dry_run", dryRun)
	if format == formatter.Text {
		r.writePlainHeader("Monthly playlists")
	}

	progressCh, stop := r.watchProgress(format != formatter.Text)
	result, err := engine.Generate(ctx, userID, progressCh, tasks.GenerateOpts{DryRun: dryRun})
	stop()
	if err != nil {
		return err
	}

	if format == formatter.Text {
		r.writePlain("\n")
	}
	if err := formatter.WriteGenerate(r.output, format, result); err != nil {
		return err
	}

	if err := result.Err(); err != nil {
		return fmt.Errorf("%d of %d playlists failed: %w", result.Failed, len(result.Playlists), err)
	}
	return nil
}
