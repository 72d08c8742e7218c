package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/services"
	"github.com/desertthunder/monthlies/internal/shared"
	"github.com/desertthunder/monthlies/internal/tasks"
	"github.com/desertthunder/monthlies/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	service    services.Service
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
	getenv     func(string) string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.Service // built from the configuration when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Getenv     func(string) string
}

// profiler is implemented by services that can look up the authenticated user.
type profiler interface {
	UserProfile(ctx context.Context) (*services.SpotifyUser, error)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}

	return &Runner{
		config:     opts.Config,
		service:    opts.Service,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    ui.DefaultPalette(),
		getenv:     opts.Getenv,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		generateCommand, cleanupCommand, playlistsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command: the file named by --config when it exists, otherwise the
// preset or default configuration, overlaid with the environment. A --config path given explicitly must exist.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")

	switch _, err := os.Stat(path); {
	case path != "" && err == nil:
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
		r.logger.Debug("config loaded", "path", path)
	case cmd.IsSet("config"):
		return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	case r.config == nil:
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config = shared.DefaultConfig()
	}

	r.config.ApplyEnv(r.getenv)
	return r.config.Validate()
}

// prepare loads configuration and builds the service and engine shared by the library commands.
func (r *Runner) prepare(cmd *cli.Command) (*tasks.PlaylistEngine, error) {
	if err := r.loadConfig(cmd); err != nil {
		return nil, err
	}

	if r.service == nil {
		spotify, err := services.NewSpotifyService(services.SpotifyOpts{
			Credentials: models.Credentials{
				AccessToken:  r.config.Credentials.Spotify.AccessToken,
				RefreshToken: r.config.Credentials.Spotify.RefreshToken,
				UserID:       r.config.Credentials.Spotify.UserID,
			},
			BaseURL:    r.config.API.BaseURL,
			HTTPClient: r.httpClient,
			PageSize:   r.config.API.PageSize,
			RateLimit:  r.config.API.RateLimit,
			Timeout:    r.config.API.Timeout(),
			Logger:     r.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set %s or credentials.spotify.access_token)", err, shared.EnvAccessToken)
		}
		r.service = spotify
	}

	concurrency := r.config.Limits.Concurrency
	if cmd.IsSet("concurrency") {
		concurrency = int(cmd.Int("concurrency"))
	}
	if concurrency < 1 || concurrency > tasks.MaxConcurrency {
		return nil, fmt.Errorf("%w: concurrency must be between 1 and %d", shared.ErrInvalidFlag, tasks.MaxConcurrency)
	}

	return tasks.NewPlaylistEngine(r.service, tasks.EngineOpts{
		Concurrency: concurrency,
		ChunkSize:   r.config.Limits.ChunkSize,
		BucketCap:   r.config.Limits.BucketCap,
		Retry:       tasks.NewRetryPolicy(r.config.Limits.MaxRetries, r.config.Limits.Backoff()),
		Description: r.config.Playlists.Description,
		Private:     !r.config.Playlists.Public,
		MinYear:     r.config.Cleanup.MinYear,
		MaxYear:     r.config.Cleanup.MaxYear,
		Logger:      r.logger,
	}), nil
}

// userID returns the configured user id, resolving it once through the service profile when unset.
func (r *Runner) userID(ctx context.Context) (string, error) {
	if id := r.config.Credentials.Spotify.UserID; id != "" {
		return id, nil
	}

	p, ok := r.service.(profiler)
	if !ok {
		return "", fmt.Errorf("%w: user id not configured (set %s)", shared.ErrMissingCredentials, shared.EnvUserID)
	}

	user, err := p.UserProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user id: %w", err)
	}
	if user.ID == "" {
		return "", errors.New("failed to resolve user id: empty profile id")
	}

	r.logger.Debug("resolved user id", "user", user.ID)
	r.config.Credentials.Spotify.UserID = user.ID
	return user.ID, nil
}

// watchProgress starts printing progress updates unless quiet is set. Call the returned stop function once the
// operation has returned.
func (r *Runner) watchProgress(quiet bool) (chan<- tasks.ProgressUpdate, func()) {
	if quiet {
		return nil, func() {}
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.palette.WatchProgress(r.output, progressCh)
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
