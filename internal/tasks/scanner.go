package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/services"
	"github.com/desertthunder/monthlies/internal/shared"
)

const (
	DefaultMinYear = 2000
	DefaultMaxYear = 2020
)

// Classifier recognizes playlists that look generated: owned by UserID and named "MM YYYY" with a valid month and
// a year in [MinYear, MaxYear].
type Classifier struct {
	UserID  string
	MinYear int
	MaxYear int
}

// NewClassifier creates a [Classifier] for userID with the default year range.
func NewClassifier(userID string) Classifier {
	return Classifier{UserID: userID, MinYear: DefaultMinYear, MaxYear: DefaultMaxYear}
}

// IsGenerated reports whether p matches the generated-playlist pattern.
func (c Classifier) IsGenerated(p models.Playlist) bool {
	if c.UserID == "" || p.OwnerID != c.UserID {
		return false
	}

	name := p.Name
	if len(name) != 7 {
		return false
	}

	month, ok := digits(name[:2])
	if !ok || month < 1 || month > 12 {
		return false
	}

	year, ok := digits(name[3:])
	return ok && year >= c.MinYear && year <= c.MaxYear
}

// digits parses s as an unsigned decimal number of ASCII digits only.
func digits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, len(s) > 0
}

// Scanner finds generated playlists and unfollows them.
type Scanner struct {
	srv        services.Service
	classifier Classifier
	retry      RetryPolicy
	logger     *log.Logger
}

// NewScanner creates a [Scanner].
func NewScanner(srv services.Service, classifier Classifier, retry RetryPolicy, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Scanner{srv: srv, classifier: classifier, retry: retry, logger: logger}
}

// Scan lists the user's playlists and returns the generated ones, along with the number scanned.
func (s *Scanner) Scan(ctx context.Context) ([]models.Playlist, int, error) {
	playlists, err := s.srv.UserPlaylists(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list playlists: %w", err)
	}

	var matches []models.Playlist
	for _, p := range playlists {
		if s.classifier.IsGenerated(p) {
			matches = append(matches, p)
		}
	}

	s.logger.Debug("scanned playlists", "total", len(playlists), "generated", len(matches))
	return matches, len(playlists), nil
}

// Unfollow removes the user as a follower of p. Followers other than the user keep the playlist.
func (s *Scanner) Unfollow(ctx context.Context, p models.Playlist) error {
	err := s.retry.Do(ctx, s.logger, fmt.Sprintf("unfollow playlist %q", p.Name), func(ctx context.Context) error {
		return s.srv.UnfollowPlaylist(ctx, s.classifier.UserID, p.ID)
	})
	if err != nil {
		s.logger.Error("failed to unfollow playlist", "name", p.Name, "id", p.ID, "err", err)
		return err
	}

	s.logger.Info("playlist unfollowed", "name", p.Name, "id", p.ID)
	return nil
}
