package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/services"
	"github.com/desertthunder/monthlies/internal/shared"
)

// DefaultDescription is attached to every generated playlist.
const DefaultDescription = "Created by monthlies: your saved tracks, one playlist per month"

// Creator creates one playlist per month, retrying 502 responses under its [RetryPolicy].
type Creator struct {
	srv         services.Service
	retry       RetryPolicy
	description string
	public      bool
	logger      *log.Logger
}

// NewCreator creates a [Creator] for srv.
func NewCreator(srv services.Service, retry RetryPolicy, description string, public bool, logger *log.Logger) *Creator {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Creator{srv: srv, retry: retry, description: description, public: public, logger: logger}
}

// Create creates the playlist for key and returns it. The returned playlist may carry an empty ID; the
// [Populator] guards against that.
func (c *Creator) Create(ctx context.Context, key MonthKey) (*models.Playlist, error) {
	name := key.Name()

	var playlist *models.Playlist
	err := c.retry.Do(ctx, c.logger, fmt.Sprintf("create playlist %q", name), func(ctx context.Context) error {
		p, err := c.srv.CreatePlaylist(ctx, name, c.description, c.public)
		if err != nil {
			return err
		}
		playlist = p
		return nil
	})
	if err != nil {
		c.logger.Error("failed to create playlist", "name", name, "status", shared.StatusCode(err), "err", err)
		return nil, err
	}

	c.logger.Info("playlist created", "name", name, "id", playlist.ID, "visibility", shared.VisibilityString(c.public))
	return playlist, nil
}
