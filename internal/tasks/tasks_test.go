package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/shared"
	tu "github.com/desertthunder/monthlies/internal/testing"
)

func newTestEngine(lib *tu.FakeLibrary) *PlaylistEngine {
	return NewPlaylistEngine(lib, EngineOpts{
		Concurrency: 2,
		Retry:       NewRetryPolicy(3, 0),
	})
}

func TestNewPlaylistEngine(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := NewPlaylistEngine(&tu.FakeLibrary{}, EngineOpts{})
		if e.opts.Concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, e.opts.Concurrency)
		}
		if e.opts.ChunkSize != DefaultChunkSize || e.opts.BucketCap != DefaultBucketCap {
			t.Errorf("unexpected limits: %+v", e.opts)
		}
		if e.opts.Retry.MaxAttempts != DefaultMaxAttempts || e.opts.Retry.Retryable == nil {
			t.Errorf("expected default retry policy, got %+v", e.opts.Retry)
		}
	})

	t.Run("zero options create public playlists with attribution", func(t *testing.T) {
		lib := &tu.FakeLibrary{Tracks: tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 3)}

		if _, err := NewPlaylistEngine(lib, EngineOpts{}).Generate(context.Background(), "user1", nil, GenerateOpts{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Created) != 1 {
			t.Fatalf("expected one playlist, got %+v", lib.Created)
		}
		if !lib.Created[0].Public || lib.Created[0].Description != DefaultDescription {
			t.Errorf("expected public playlist with attribution, got %+v", lib.Created[0])
		}
	})

	t.Run("private and custom description", func(t *testing.T) {
		lib := &tu.FakeLibrary{Tracks: tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 1)}
		e := NewPlaylistEngine(lib, EngineOpts{Private: true, Description: "mine"})

		if _, err := e.Generate(context.Background(), "user1", nil, GenerateOpts{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lib.Created[0].Public || lib.Created[0].Description != "mine" {
			t.Errorf("expected private playlist described 'mine', got %+v", lib.Created[0])
		}
	})

	t.Run("concurrency is capped", func(t *testing.T) {
		e := NewPlaylistEngine(&tu.FakeLibrary{}, EngineOpts{Concurrency: 64})
		if e.opts.Concurrency != MaxConcurrency {
			t.Errorf("expected concurrency %d, got %d", MaxConcurrency, e.opts.Concurrency)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("120 tracks in one month", func(t *testing.T) {
		lib := &tu.FakeLibrary{Tracks: tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 120)}

		result, err := newTestEngine(lib).Generate(context.Background(), "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(lib.Created) != 1 || lib.Created[0].Name != "10 2016" {
			t.Fatalf("expected one playlist '10 2016', got %+v", lib.Created)
		}
		if !lib.Created[0].Public || lib.Created[0].Description != DefaultDescription {
			t.Errorf("expected public playlist with attribution, got %+v", lib.Created[0])
		}

		adds := lib.AddsFor("pl-1")
		if len(adds) != 2 {
			t.Fatalf("expected exactly 2 writes, got %d", len(adds))
		}
		if len(adds[0].URIs) != 100 || len(adds[1].URIs) != 20 {
			t.Errorf("expected writes of 100 and 20, got %d and %d", len(adds[0].URIs), len(adds[1].URIs))
		}
		if adds[0].URIs[0] != "spotify:track:t0" || adds[1].URIs[19] != "spotify:track:t119" {
			t.Error("expected tracks in saved order")
		}
		if adds[0].UserID != "user1" {
			t.Errorf("expected writes as user1, got %s", adds[0].UserID)
		}

		if result.Succeeded != 1 || result.Failed != 0 {
			t.Errorf("expected 1 success, got %+v", result)
		}
		p := result.Playlists[0]
		if p.Written != 120 || p.Chunks != 2 || p.PlaylistID != "pl-1" {
			t.Errorf("unexpected playlist result: %+v", p)
		}
		if result.RunID == "" {
			t.Error("expected run id")
		}
		if result.Err() != nil {
			t.Errorf("expected no failures, got %v", result.Err())
		}
	})

	t.Run("one playlist per month in chronological order", func(t *testing.T) {
		var tracks []models.Track
		tracks = append(tracks, tu.SavedTracksAt("c", "2017-07-02T00:00:00Z", 3)...)
		tracks = append(tracks, tu.SavedTracksAt("b", "2016-11-02T00:00:00Z", 2)...)
		tracks = append(tracks, tu.SavedTracksAt("a", "2016-10-02T00:00:00Z", 1)...)
		lib := &tu.FakeLibrary{Tracks: tracks}

		result, err := newTestEngine(lib).Generate(context.Background(), "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"10 2016", "11 2016", "07 2017"}
		if len(result.Playlists) != len(want) {
			t.Fatalf("expected %d playlists, got %d", len(want), len(result.Playlists))
		}
		for i, p := range result.Playlists {
			if p.Name != want[i] {
				t.Errorf("playlist %d: expected %s, got %s", i, want[i], p.Name)
			}
			if !p.Success {
				t.Errorf("expected %s to succeed: %v", p.Name, p.Err)
			}
		}
		if lib.CreateCalls != 3 || len(lib.Adds) != 3 {
			t.Errorf("expected 3 creates and 3 writes, got %d and %d", lib.CreateCalls, len(lib.Adds))
		}
	})

	t.Run("three 502s on creation", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Tracks:     tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 5),
			CreateErrs: []error{badGateway(), badGateway(), badGateway(), badGateway()},
		}

		result, err := newTestEngine(lib).Generate(context.Background(), "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no run error, got %v", err)
		}

		if lib.CreateCalls != 3 {
			t.Errorf("expected exactly 3 attempts, got %d", lib.CreateCalls)
		}
		if len(lib.Adds) != 0 {
			t.Errorf("expected no writes, got %d", len(lib.Adds))
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failure, got %d", result.Failed)
		}
		if !errors.Is(result.Playlists[0].Err, shared.ErrRetriesExhausted) {
			t.Errorf("expected retries exhausted, got %v", result.Playlists[0].Err)
		}
		if !errors.Is(result.Err(), shared.ErrRetriesExhausted) {
			t.Errorf("expected joined error to carry the cause, got %v", result.Err())
		}
	})

	t.Run("failed month does not affect others", func(t *testing.T) {
		var tracks []models.Track
		tracks = append(tracks, tu.SavedTracksAt("a", "2016-10-02T00:00:00Z", 1)...)
		tracks = append(tracks, tu.SavedTracksAt("b", "2016-11-02T00:00:00Z", 1)...)
		lib := &tu.FakeLibrary{
			Tracks:     tracks,
			CreateErrs: []error{&shared.UnhandledUpstreamError{StatusCode: 403}},
		}

		result, err := NewPlaylistEngine(lib, EngineOpts{Concurrency: 1, Retry: NewRetryPolicy(3, 0)}).
			Generate(context.Background(), "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no run error, got %v", err)
		}

		if result.Succeeded != 1 || result.Failed != 1 {
			t.Errorf("expected 1 success and 1 failure, got %+v", result)
		}
		if lib.CreateCalls != 2 {
			t.Errorf("expected non-502 failure not to be retried, got %d creates", lib.CreateCalls)
		}
	})

	t.Run("empty playlist id skips population", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Tracks:   tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 3),
			EmptyIDs: true,
		}

		result, err := newTestEngine(lib).Generate(context.Background(), "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no run error, got %v", err)
		}

		if len(lib.Adds) != 0 {
			t.Errorf("expected no writes, got %d", len(lib.Adds))
		}
		if !errors.Is(result.Playlists[0].Err, shared.ErrInvalidPlaylistID) {
			t.Errorf("expected ErrInvalidPlaylistID, got %v", result.Playlists[0].Err)
		}
	})

	t.Run("failed chunk does not stop the rest", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Tracks:  tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 250),
			AddErrs: map[string][]error{"pl-1": {nil, badGateway()}},
		}

		result, err := newTestEngine(lib).Generate(context.Background(), "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no run error, got %v", err)
		}

		adds := lib.AddsFor("pl-1")
		if len(adds) != 2 || len(adds[0].URIs) != 100 || len(adds[1].URIs) != 50 {
			t.Fatalf("expected chunks 1 and 3 written, got %d writes", len(adds))
		}

		p := result.Playlists[0]
		if p.Success || p.Chunks != 3 || p.FailedChunks != 1 || p.Written != 150 {
			t.Errorf("unexpected playlist result: %+v", p)
		}
		if shared.StatusCode(p.Err) != 502 {
			t.Errorf("expected chunk error to carry 502, got %v", p.Err)
		}
	})

	t.Run("dry run performs no writes", func(t *testing.T) {
		lib := &tu.FakeLibrary{Tracks: tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 10)}

		result, err := newTestEngine(lib).Generate(context.Background(), "", nil, GenerateOpts{DryRun: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if lib.CreateCalls != 0 || len(lib.Adds) != 0 {
			t.Errorf("expected no writes, got %d creates and %d adds", lib.CreateCalls, len(lib.Adds))
		}
		if !result.DryRun || len(result.Playlists) != 1 || result.Playlists[0].Tracks != 10 {
			t.Errorf("unexpected dry run result: %+v", result)
		}
	})

	t.Run("aborting errors", func(t *testing.T) {
		boom := errors.New("boom")
		tests := []struct {
			name   string
			lib    *tu.FakeLibrary
			userID string
			want   error
		}{
			{name: "fetch failure", lib: &tu.FakeLibrary{TracksErr: boom}, userID: "user1", want: boom},
			{name: "malformed timestamp", lib: &tu.FakeLibrary{Tracks: []models.Track{{URI: "x", AddedAt: "nope"}}}, userID: "user1", want: shared.ErrMalformedTimestamp},
			{name: "missing user", lib: &tu.FakeLibrary{}, userID: "", want: shared.ErrMissingArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := newTestEngine(tt.lib).Generate(context.Background(), tt.userID, nil, GenerateOpts{})
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if tt.lib.CreateCalls != 0 {
					t.Error("expected no playlists created")
				}
			})
		}
	})

	t.Run("nil service", func(t *testing.T) {
		_, err := NewPlaylistEngine(nil, EngineOpts{}).Generate(context.Background(), "user1", nil, GenerateOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		lib := &tu.FakeLibrary{Tracks: tu.SavedTracksAt("t", "2016-10-24T15:03:07Z", 3)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := newTestEngine(lib).Generate(ctx, "user1", nil, GenerateOpts{})
		if err != nil {
			t.Fatalf("expected no run error, got %v", err)
		}
		if lib.CreateCalls != 0 {
			t.Errorf("expected no creates after cancel, got %d", lib.CreateCalls)
		}
		if !errors.Is(result.Playlists[0].Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", result.Playlists[0].Err)
		}
	})

	t.Run("progress", func(t *testing.T) {
		var tracks []models.Track
		for m := 1; m <= 6; m++ {
			tracks = append(tracks, tu.SavedTracksAt(fmt.Sprintf("m%d-", m), fmt.Sprintf("2016-%02d-01T00:00:00Z", m), 2)...)
		}

		t.Run("buffered channel receives updates", func(t *testing.T) {
			lib := &tu.FakeLibrary{Tracks: tracks}
			progress := make(chan ProgressUpdate, 100)

			if _, err := newTestEngine(lib).Generate(context.Background(), "user1", progress, GenerateOpts{}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			months := 0
			for u := range progress {
				if u.Phase == WriteMonth {
					months++
				}
			}
			if months != 6 {
				t.Errorf("expected 6 month updates, got %d", months)
			}
		})

		t.Run("unread channel does not block", func(t *testing.T) {
			lib := &tu.FakeLibrary{Tracks: tracks}
			progress := make(chan ProgressUpdate)

			if _, err := newTestEngine(lib).Generate(context.Background(), "user1", progress, GenerateOpts{}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})
}

func TestCleanup(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "a", Name: "07 2017", OwnerID: "user1"},
		{ID: "b", Name: "13 2017", OwnerID: "user1"},
		{ID: "c", Name: "08 2017", OwnerID: "user2"},
		{ID: "d", Name: "01 2016", OwnerID: "user1"},
		{ID: "e", Name: "Gym", OwnerID: "user1"},
	}

	t.Run("unfollows generated playlists only", func(t *testing.T) {
		lib := &tu.FakeLibrary{Playlists: playlists}

		result, err := newTestEngine(lib).Cleanup(context.Background(), "user1", nil, CleanupOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Scanned != 5 || result.Matched != 2 || result.Unfollowed != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(lib.Unfollowed) != 2 || lib.UnfollowCalls["a"] != 1 || lib.UnfollowCalls["d"] != 1 {
			t.Errorf("expected a and d unfollowed, got %v", lib.Unfollowed)
		}
		if result.Results[0].Playlist.ID != "a" || result.Results[1].Playlist.ID != "d" {
			t.Error("expected results in listing order")
		}
	})

	t.Run("502 exhaustion is recorded per playlist", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Playlists:    playlists,
			UnfollowErrs: map[string][]error{"a": {badGateway(), badGateway(), badGateway()}},
		}

		result, err := newTestEngine(lib).Cleanup(context.Background(), "user1", nil, CleanupOpts{})
		if err != nil {
			t.Fatalf("expected no run error, got %v", err)
		}

		if lib.UnfollowCalls["a"] != 3 {
			t.Errorf("expected 3 attempts on a, got %d", lib.UnfollowCalls["a"])
		}
		if result.Unfollowed != 1 || result.Failed != 1 {
			t.Errorf("expected 1 unfollowed and 1 failed, got %+v", result)
		}
		if !errors.Is(result.Err(), shared.ErrRetriesExhausted) {
			t.Errorf("expected retries exhausted, got %v", result.Err())
		}
	})

	t.Run("dry run lists matches only", func(t *testing.T) {
		lib := &tu.FakeLibrary{Playlists: playlists}

		result, err := newTestEngine(lib).Cleanup(context.Background(), "user1", nil, CleanupOpts{DryRun: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(lib.UnfollowCalls) != 0 {
			t.Errorf("expected no unfollows, got %v", lib.UnfollowCalls)
		}
		if result.Matched != 2 || result.Unfollowed != 0 || result.Failed != 0 {
			t.Errorf("unexpected dry run result: %+v", result)
		}
	})

	t.Run("progress distinguishes dry run from unfollow", func(t *testing.T) {
		tests := []struct {
			name   string
			dryRun bool
			want   string
			reject string
		}{
			{name: "dry run", dryRun: true, want: "would unfollow 07 2017", reject: "✓ unfollowed"},
			{name: "live", dryRun: false, want: "✓ unfollowed 07 2017", reject: "would unfollow"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				lib := &tu.FakeLibrary{Playlists: playlists}
				progress := make(chan ProgressUpdate, 100)

				if _, err := newTestEngine(lib).Cleanup(context.Background(), "user1", progress, CleanupOpts{DryRun: tt.dryRun}); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				close(progress)

				var found bool
				for u := range progress {
					if u.Phase != UnfollowPlaylists {
						continue
					}
					if strings.Contains(u.Message, tt.reject) {
						t.Errorf("unexpected progress message %q", u.Message)
					}
					if strings.Contains(u.Message, tt.want) {
						found = true
					}
				}
				if !found {
					t.Errorf("expected a progress message containing %q", tt.want)
				}
			})
		}
	})

	t.Run("Scan reports generated playlists without unfollowing", func(t *testing.T) {
		lib := &tu.FakeLibrary{Playlists: playlists}

		matches, scanned, err := newTestEngine(lib).Scan(context.Background(), "user1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if scanned != 5 || len(matches) != 2 || matches[0].ID != "a" || matches[1].ID != "d" {
			t.Errorf("expected a and d out of 5, got %d %+v", scanned, matches)
		}
		if len(lib.UnfollowCalls) != 0 {
			t.Errorf("expected no unfollows, got %v", lib.UnfollowCalls)
		}
	})

	t.Run("Scan requires a user", func(t *testing.T) {
		if _, _, err := newTestEngine(&tu.FakeLibrary{}).Scan(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := newTestEngine(&tu.FakeLibrary{}).Cleanup(context.Background(), "", nil, CleanupOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("year range follows engine options", func(t *testing.T) {
		lib := &tu.FakeLibrary{Playlists: []models.Playlist{{ID: "x", Name: "03 2024", OwnerID: "user1"}}}
		e := NewPlaylistEngine(lib, EngineOpts{Retry: NewRetryPolicy(3, 0), MaxYear: 2030})

		result, err := e.Cleanup(context.Background(), "user1", nil, CleanupOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Unfollowed != 1 {
			t.Errorf("expected 2024 playlist unfollowed, got %+v", result)
		}
	})
}
