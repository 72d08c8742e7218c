// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// MaxPageSize is the largest page the library endpoints return.
	MaxPageSize = 50
	// MaxTracksPerRequest is the largest number of URIs one add-tracks call accepts.
	MaxTracksPerRequest = 100

	defaultRateLimit = 5.0
	defaultTimeout   = 30 * time.Second
	errorBodyLimit   = 4 << 10
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
//
// Track is nil for items that are no longer available.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// Owner is the owner of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists and as the create response).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type spotifyErrorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	Credentials models.Credentials
	BaseURL     string       // defaults to the public Web API
	HTTPClient  *http.Client // base client wrapped with the bearer token; defaults to one with Timeout
	PageSize    int          // clamped to 1..50
	RateLimit   float64      // requests per second shared by every call
	Timeout     time.Duration
	Logger      *log.Logger
}

// SpotifyService implements the [Service] interface for Spotify API interactions.
//
// Every request carries the bearer token from the supplied credentials via [oauth2.Transport] and waits on a single
// [rate.Limiter] so that concurrent callers stay under the upstream rate limit.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service for the given credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if !opts.Credentials.Valid() {
		return nil, fmt.Errorf("%w: missing access_token", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	token := &oauth2.Token{
		AccessToken:  opts.Credentials.AccessToken,
		RefreshToken: opts.Credentials.RefreshToken,
		TokenType:    "Bearer",
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)

	return &SpotifyService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)),
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		pageSize:   opts.PageSize,
		logger:     opts.Logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// resolve turns an endpoint path into an absolute URL. Absolute URLs (pagination "next" links) pass through.
func (s *SpotifyService) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return s.baseURL + endpoint
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// Any failure is returned as a [shared.UnhandledUpstreamError].
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	apiURL := s.resolve(endpoint)
	upstreamErr := func(status int, err error) error {
		return &shared.UnhandledUpstreamError{Method: method, URL: apiURL, StatusCode: status, Err: err}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return upstreamErr(0, fmt.Errorf("rate limiter: %w", err))
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("spotify request", "method", method, "url", apiURL)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return upstreamErr(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamErr(resp.StatusCode, readErrorBody(resp.Body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
			return upstreamErr(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}

// readErrorBody extracts the message of a Spotify error object, falling back to the raw body.
func readErrorBody(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var apiErr spotifyErrorResponse
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
		return errors.New(apiErr.Error.Message)
	}

	return errors.New(strings.TrimSpace(string(data)))
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func newPager[T any](s *SpotifyService, endpoint string) *Pager[T] {
	first := fmt.Sprintf("%s?offset=0&limit=%d", endpoint, s.pageSize)
	return NewPager[T](s.resolve(first), func(ctx context.Context, pageURL string) (*Page[T], error) {
		var page Page[T]
		if err := s.doRequest(ctx, http.MethodGet, pageURL, nil, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
}

// SavedTracksPager returns a [Pager] over the user's saved tracks.
func (s *SpotifyService) SavedTracksPager() *Pager[SpotifySavedTrack] {
	return newPager[SpotifySavedTrack](s, "/me/tracks")
}

// PlaylistsPager returns a [Pager] over the current user's playlists.
func (s *SpotifyService) PlaylistsPager() *Pager[SpotifySimplePlaylist] {
	return newPager[SpotifySimplePlaylist](s, "/me/playlists")
}

// SavedTracks retrieves every saved track, newest first as returned by the API.
func (s *SpotifyService) SavedTracks(ctx context.Context) ([]models.Track, error) {
	items, err := Collect(ctx, s.SavedTracksPager(), shared.WithLogger(s.logger, "endpoint", "/me/tracks"))
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil {
			s.logger.Debug("skipping unavailable saved track", "added_at", item.AddedAt)
			continue
		}
		tracks = append(tracks, item.toTrack())
	}

	return tracks, nil
}

// UserPlaylists retrieves every playlist of the current user.
func (s *SpotifyService) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	items, err := Collect(ctx, s.PlaylistsPager(), shared.WithLogger(s.logger, "endpoint", "/me/playlists"))
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(items))
	for _, item := range items {
		playlists = append(playlists, item.toPlaylist())
	}

	return playlists, nil
}

// CreatePlaylist creates a playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name is empty", shared.ErrInvalidArgument)
	}

	req := createPlaylistRequest{Name: name, Public: public, Description: description}

	var created SpotifySimplePlaylist
	if err := s.doRequest(ctx, http.MethodPost, "/me/playlists", req, &created); err != nil {
		return nil, err
	}

	playlist := created.toPlaylist()
	return &playlist, nil
}

// AddTracks appends uris to a playlist in a single request.
func (s *SpotifyService) AddTracks(ctx context.Context, userID, playlistID string, uris []string) error {
	if playlistID == "" {
		return shared.ErrInvalidPlaylistID
	}
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs provided", shared.ErrInvalidArgument)
	}
	if len(uris) > MaxTracksPerRequest {
		return fmt.Errorf("%w: maximum %d track URIs allowed per request", shared.ErrInvalidArgument, MaxTracksPerRequest)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists/%s/tracks", url.PathEscape(userID), url.PathEscape(playlistID))

	var snapshot snapshotResponse
	if err := s.doRequest(ctx, http.MethodPost, endpoint, addTracksRequest{URIs: uris}, &snapshot); err != nil {
		return err
	}

	s.logger.Debug("tracks added", "playlist", playlistID, "count", len(uris), "snapshot", snapshot.SnapshotID)
	return nil
}

// UnfollowPlaylist removes the current user as a follower of a playlist.
func (s *SpotifyService) UnfollowPlaylist(ctx context.Context, userID, playlistID string) error {
	if playlistID == "" {
		return shared.ErrInvalidPlaylistID
	}

	endpoint := fmt.Sprintf("/users/%s/playlists/%s/followers", url.PathEscape(userID), url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (t SpotifySavedTrack) toTrack() models.Track {
	track := models.Track{
		ID:      t.Track.ID,
		URI:     t.Track.URI,
		Name:    t.Track.Name,
		AddedAt: t.AddedAt,
	}
	if len(t.Track.Artists) > 0 {
		track.Artist = t.Track.Artists[0].Name
	}
	return track
}

func (p SpotifySimplePlaylist) toPlaylist() models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		OwnerID:     p.Owner.ID,
		Description: p.Description,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
		URI:         p.URI,
	}
}
