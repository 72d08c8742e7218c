package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/monthlies/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		return fmt.Errorf("%w: --path", shared.ErrMissingArgument)
	}

	if _, err := os.Stat(path); err == nil {
		r.logger.Warn("config file already exists", "path", path)
		return fmt.Errorf("%w: %s already exists", shared.ErrInvalidArgument, path)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	if _, err := shared.LoadConfig(path); err != nil {
		return fmt.Errorf("config file written but could not be read back: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s\n", r.palette.OK("✓ Configuration written to "+path))
	r.writePlain("\nNext steps:\n")
	r.writePlain("1. Set credentials.spotify.access_token (or %s)\n", shared.EnvAccessToken)
	r.writePlain("2. Run 'monthlies generate --dry-run' to preview your monthly playlists\n")
	return nil
}
