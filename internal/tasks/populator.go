package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/services"
	"github.com/desertthunder/monthlies/internal/shared"
)

// Populator fills a playlist with tracks in chunks no larger than the add-tracks request limit.
//
// Chunks are written one after another, so the playlist keeps the order of tracks. A failed chunk is neither retried
// nor rolled back and does not stop the remaining chunks.
type Populator struct {
	srv       services.Service
	chunkSize int
	logger    *log.Logger
}

// NewPopulator creates a [Populator]. chunkSize is clamped to 1..[services.MaxTracksPerRequest].
func NewPopulator(srv services.Service, chunkSize int, logger *log.Logger) *Populator {
	if chunkSize <= 0 || chunkSize > services.MaxTracksPerRequest {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Populator{srv: srv, chunkSize: chunkSize, logger: logger}
}

// PopulateResult counts the outcome of one [Populator.Populate] call.
type PopulateResult struct {
	Written      int // tracks added
	Chunks       int // chunks attempted
	FailedChunks int
}

// Populate adds tracks to playlistID as userID. Every chunk error is collected and returned joined.
func (p *Populator) Populate(ctx context.Context, userID, playlistID string, tracks []models.Track) (PopulateResult, error) {
	var res PopulateResult

	if playlistID == "" {
		p.logger.Error("playlist has no id, skipping population", "tracks", len(tracks))
		return res, fmt.Errorf("%w: empty id returned for new playlist", shared.ErrInvalidPlaylistID)
	}

	chunks := Chunk(models.URIs(tracks), p.chunkSize)

	var errs []error
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res.Chunks++
		if err := p.srv.AddTracks(ctx, userID, playlistID, chunk); err != nil {
			res.FailedChunks++
			p.logger.Error("failed to add tracks", "playlist", playlistID, "chunk", i+1, "of", len(chunks), "err", err)
			errs = append(errs, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
			continue
		}

		res.Written += len(chunk)
		p.logger.Info("tracks added", "playlist", playlistID, "chunk", i+1, "of", len(chunks), "count", len(chunk))
	}

	return res, errors.Join(errs...)
}
