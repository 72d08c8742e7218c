package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/monthlies/internal/formatter"
	"github.com/desertthunder/monthlies/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Cleanup unfollows every playlist that looks generated.
func (r *Runner) Cleanup(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")

	engine, err := r.prepare(cmd)
	if err != nil {
		return err
	}

	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("cleaning up generated playlists", "user", userID, "dry_run", dryRun)
	if format == formatter.Text {
		r.writePlainHeader("Cleanup")
		r.writePlain("%s\n", r.palette.Warn("Playlists are unfollowed, not deleted: anyone else following them keeps them."))
	}

	progressCh, stop := r.watchProgress(format != formatter.Text)
	result, err := engine.Cleanup(ctx, userID, progressCh, tasks.CleanupOpts{DryRun: dryRun})
	stop()
	if err != nil {
		return err
	}

	if format == formatter.Text {
		r.writePlain("\n")
	}
	if err := formatter.WriteCleanup(r.output, format, result); err != nil {
		return err
	}

	if err := result.Err(); err != nil {
		return fmt.Errorf("%d of %d playlists could not be unfollowed: %w", result.Failed, result.Matched, err)
	}
	return nil
}
