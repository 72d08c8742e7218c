// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/monthlies/internal/models"
)

// AddCall records one AddTracks request.
type AddCall struct {
	UserID     string
	PlaylistID string
	URIs       []string
}

// FakeLibrary is an in-memory test double for [services.Service].
//
// Error slices are consumed one per call, in order; once exhausted calls succeed.
// Safe for concurrent use.
type FakeLibrary struct {
	mu sync.Mutex

	Tracks    []models.Track
	Playlists []models.Playlist

	TracksErr    error
	PlaylistsErr error
	CreateErrs   []error
	AddErrs      map[string][]error // keyed by playlist ID
	UnfollowErrs map[string][]error // keyed by playlist ID

	// EmptyIDs makes CreatePlaylist return playlists without an ID.
	EmptyIDs bool

	Created       []models.Playlist
	CreateCalls   int
	Adds          []AddCall
	UnfollowCalls map[string]int
	Unfollowed    []string
}

func (f *FakeLibrary) Name() string { return "fake" }

func (f *FakeLibrary) SavedTracks(ctx context.Context) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return append([]models.Track(nil), f.Tracks...), nil
}

func (f *FakeLibrary) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlaylistsErr != nil {
		return nil, f.PlaylistsErr
	}
	return append([]models.Playlist(nil), f.Playlists...), nil
}

func (f *FakeLibrary) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateCalls++
	if len(f.CreateErrs) > 0 {
		err := f.CreateErrs[0]
		f.CreateErrs = f.CreateErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	p := models.Playlist{Name: name, Description: description, Public: public}
	if !f.EmptyIDs {
		p.ID = fmt.Sprintf("pl-%d", len(f.Created)+1)
	}
	f.Created = append(f.Created, p)
	return &p, nil
}

func (f *FakeLibrary) AddTracks(ctx context.Context, userID, playlistID string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if errs := f.AddErrs[playlistID]; len(errs) > 0 {
		f.AddErrs[playlistID] = errs[1:]
		if errs[0] != nil {
			return errs[0]
		}
	}

	f.Adds = append(f.Adds, AddCall{UserID: userID, PlaylistID: playlistID, URIs: append([]string(nil), uris...)})
	return nil
}

func (f *FakeLibrary) UnfollowPlaylist(ctx context.Context, userID, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UnfollowCalls == nil {
		f.UnfollowCalls = map[string]int{}
	}
	f.UnfollowCalls[playlistID]++

	if errs := f.UnfollowErrs[playlistID]; len(errs) > 0 {
		f.UnfollowErrs[playlistID] = errs[1:]
		if errs[0] != nil {
			return errs[0]
		}
	}

	f.Unfollowed = append(f.Unfollowed, playlistID)
	return nil
}

// AddsFor returns the recorded AddTracks calls for a playlist, in call order.
func (f *FakeLibrary) AddsFor(playlistID string) []AddCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []AddCall
	for _, c := range f.Adds {
		if c.PlaylistID == playlistID {
			calls = append(calls, c)
		}
	}
	return calls
}

// SavedTracksAt builds n tracks saved at the given timestamp with URIs spotify:track:<prefix><i>.
func SavedTracksAt(prefix, addedAt string, n int) []models.Track {
	tracks := make([]models.Track, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, models.Track{
			ID:      fmt.Sprintf("%s%d", prefix, i),
			URI:     fmt.Sprintf("spotify:track:%s%d", prefix, i),
			Name:    fmt.Sprintf("Track %d", i),
			AddedAt: addedAt,
		})
	}
	return tracks
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
