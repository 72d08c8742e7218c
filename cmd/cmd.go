// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Report what would change without writing to Spotify",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of playlists processed at once (1-10, defaults to limits.concurrency)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Summary format: text, json or csv",
			Value:   "text",
		},
	}
}

// generateCommand creates monthly playlists
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Create one playlist per month from your saved tracks",
		Flags:   runFlags(),
		Action:  r.Generate,
	}
}

// cleanupCommand unfollows generated playlists
func cleanupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "cleanup",
		Usage:  "Unfollow playlists named like a month (MM YYYY) that you own",
		Flags:  runFlags(),
		Action: r.Cleanup,
	}
}

// playlistsCommand lists generated playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your generated monthly playlists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.Playlists,
	}
}

// setupCommand handles first-run configuration
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination path",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}
