package services

import (
	"context"

	"github.com/desertthunder/monthlies/internal/models"
)

// Service defines the library and playlist operations monthly playlist generation and cleanup are built on.
type Service interface {
	// SavedTracks retrieves every track in the user's library, following pagination to the end.
	SavedTracks(ctx context.Context) ([]models.Track, error)

	// UserPlaylists retrieves every playlist the user owns or follows, following pagination to the end.
	UserPlaylists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates a playlist for the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends up to [MaxTracksPerRequest] track URIs to a playlist.
	AddTracks(ctx context.Context, userID, playlistID string, uris []string) error

	// UnfollowPlaylist removes a playlist from the user's library.
	//
	// This is not a delete: the playlist survives for any other follower.
	UnfollowPlaylist(ctx context.Context, userID, playlistID string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
