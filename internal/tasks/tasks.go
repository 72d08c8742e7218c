package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/services"
	"github.com/desertthunder/monthlies/internal/shared"
)

const (
	DefaultConcurrency = 4
	MaxConcurrency     = 10
)

// PlaylistResult is the outcome of generating one month's playlist.
type PlaylistResult struct {
	Month        MonthKey `json:"-"`
	Name         string   `json:"name"`
	PlaylistID   string   `json:"playlist_id,omitempty"`
	Tracks       int      `json:"tracks"`        // tracks in the month's bucket
	Dropped      int      `json:"dropped"`       // tracks rejected by the bucket cap
	Written      int      `json:"written"`       // tracks added to the playlist
	Chunks       int      `json:"chunks"`        // add-tracks requests issued
	FailedChunks int      `json:"failed_chunks"` // add-tracks requests that failed
	Success      bool     `json:"success"`
	Err          error    `json:"-"`
}

// GenerateResult summarizes a [PlaylistEngine.Generate] run.
type GenerateResult struct {
	RunID       string           `json:"run_id"`
	DryRun      bool             `json:"dry_run"`
	TotalTracks int              `json:"total_tracks"`
	Dropped     int              `json:"dropped"`
	Playlists   []PlaylistResult `json:"playlists"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
}

// Err joins the errors of every failed month, or returns nil.
func (r *GenerateResult) Err() error {
	var errs []error
	for _, p := range r.Playlists {
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name, p.Err))
		}
	}
	return errors.Join(errs...)
}

// UnfollowResult is the outcome of unfollowing one generated playlist.
type UnfollowResult struct {
	Playlist   models.Playlist `json:"playlist"`
	Unfollowed bool            `json:"unfollowed"`
	Err        error           `json:"-"`
}

// CleanupResult summarizes a [PlaylistEngine.Cleanup] run.
type CleanupResult struct {
	RunID      string           `json:"run_id"`
	DryRun     bool             `json:"dry_run"`
	Scanned    int              `json:"scanned"`
	Matched    int              `json:"matched"`
	Results    []UnfollowResult `json:"results"`
	Unfollowed int              `json:"unfollowed"`
	Failed     int              `json:"failed"`
}

// Err joins the errors of every failed unfollow, or returns nil.
func (r *CleanupResult) Err() error {
	var errs []error
	for _, u := range r.Results {
		if u.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.Playlist.Name, u.Err))
		}
	}
	return errors.Join(errs...)
}

// GenerateOpts controls a single [PlaylistEngine.Generate] run.
type GenerateOpts struct {
	DryRun bool // bucket and report without creating playlists
}

// CleanupOpts controls a single [PlaylistEngine.Cleanup] run.
type CleanupOpts struct {
	DryRun bool // report matches without unfollowing
}

// EngineOpts configures a [PlaylistEngine]. Zero values take the package defaults.
type EngineOpts struct {
	Concurrency int
	ChunkSize   int
	BucketCap   int
	Retry       RetryPolicy
	Description string // defaults to [DefaultDescription]
	Private     bool   // generated playlists are public unless set
	MinYear     int
	MaxYear     int
	Logger      *log.Logger
}

// PlaylistEngine generates and cleans up monthly playlists against a [services.Service].
type PlaylistEngine struct {
	srv    services.Service
	opts   EngineOpts
	logger *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine for srv.
func NewPlaylistEngine(srv services.Service, opts EngineOpts) *PlaylistEngine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Concurrency > MaxConcurrency {
		opts.Concurrency = MaxConcurrency
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.BucketCap <= 0 {
		opts.BucketCap = DefaultBucketCap
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Retry.Retryable == nil {
		opts.Retry.Retryable = Retry502
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	if opts.MinYear <= 0 {
		opts.MinYear = DefaultMinYear
	}
	if opts.MaxYear <= 0 {
		opts.MaxYear = DefaultMaxYear
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	return &PlaylistEngine{srv: srv, opts: opts, logger: opts.Logger}
}

// Classifier returns the generated-playlist classifier for userID under the engine's year range.
func (e *PlaylistEngine) Classifier(userID string) Classifier {
	return Classifier{UserID: userID, MinYear: e.opts.MinYear, MaxYear: e.opts.MaxYear}
}

// Scan lists userID's playlists and returns the generated ones, along with the number scanned. Nothing is changed.
func (e *PlaylistEngine) Scan(ctx context.Context, userID string) ([]models.Playlist, int, error) {
	if e.srv == nil {
		return nil, 0, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if userID == "" {
		return nil, 0, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	return NewScanner(e.srv, e.Classifier(userID), e.opts.Retry, e.logger).Scan(ctx)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}

// Generate fetches every saved track, groups them by the month they were saved and creates one playlist per month,
// populated in saved order.
//
// A failure to fetch or bucket the tracks aborts the run. Failures creating or populating a month are recorded in its
// [PlaylistResult] and do not affect other months.
func (e *PlaylistEngine) Generate(ctx context.Context, userID string, progress chan<- ProgressUpdate, opts GenerateOpts) (*GenerateResult, error) {
	if e.srv == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if userID == "" && !opts.DryRun {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	result := &GenerateResult{RunID: shared.GenerateID(), DryRun: opts.DryRun}
	logger := shared.WithLogger(e.logger, "run", result.RunID)

	e.sendProgress(progress, fetchTracksUpdate())
	tracks, err := e.srv.SavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved tracks: %w", err)
	}
	result.TotalTracks = len(tracks)

	buckets, err := Bucketize(tracks, e.opts.BucketCap, logger)
	if err != nil {
		return nil, err
	}
	result.Dropped = buckets.TotalDropped()

	keys := buckets.Keys()
	e.sendProgress(progress, bucketedUpdate(len(tracks), len(keys)))
	logger.Info("tracks bucketed", "tracks", len(tracks), "months", len(keys), "dropped", result.Dropped)

	creator := NewCreator(e.srv, e.opts.Retry, e.opts.Description, !e.opts.Private, logger)
	populator := NewPopulator(e.srv, e.opts.ChunkSize, logger)

	completed := 0
	result.Playlists = fanOut(ctx, e.opts.Concurrency, keys,
		func(ctx context.Context, key MonthKey) PlaylistResult {
			res := PlaylistResult{
				Month:   key,
				Name:    key.Name(),
				Tracks:  len(buckets.Get(key)),
				Dropped: buckets.Dropped(key),
			}
			if opts.DryRun {
				res.Success = true
				return res
			}
			return e.generateMonth(ctx, creator, populator, userID, buckets.Get(key), res)
		},
		func(res PlaylistResult) {
			completed++
			e.sendProgress(progress, monthDoneUpdate(completed, len(keys), res))
		},
	)

	for _, p := range result.Playlists {
		if p.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	logger.Info("generate finished", "succeeded", result.Succeeded, "failed", result.Failed, "dry_run", opts.DryRun)
	return result, nil
}

func (e *PlaylistEngine) generateMonth(
	ctx context.Context,
	creator *Creator,
	populator *Populator,
	userID string,
	tracks []models.Track,
	res PlaylistResult,
) PlaylistResult {
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	playlist, err := creator.Create(ctx, res.Month)
	if err != nil {
		res.Err = err
		return res
	}
	res.PlaylistID = playlist.ID

	pop, err := populator.Populate(ctx, userID, playlist.ID, tracks)
	res.Written = pop.Written
	res.Chunks = pop.Chunks
	res.FailedChunks = pop.FailedChunks
	if err != nil {
		res.Err = err
		return res
	}

	res.Success = true
	return res
}

// Cleanup lists the user's playlists and unfollows every one that looks generated.
//
// Unfollowing does not delete a playlist that other users still follow.
func (e *PlaylistEngine) Cleanup(ctx context.Context, userID string, progress chan<- ProgressUpdate, opts CleanupOpts) (*CleanupResult, error) {
	if e.srv == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	result := &CleanupResult{RunID: shared.GenerateID(), DryRun: opts.DryRun}
	logger := shared.WithLogger(e.logger, "run", result.RunID)
	scanner := NewScanner(e.srv, e.Classifier(userID), e.opts.Retry, logger)

	e.sendProgress(progress, fetchPlaylistsUpdate())
	matches, scanned, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	result.Scanned = scanned
	result.Matched = len(matches)
	e.sendProgress(progress, matchedPlaylistsUpdate(len(matches), scanned))

	completed := 0
	result.Results = fanOut(ctx, e.opts.Concurrency, matches,
		func(ctx context.Context, p models.Playlist) UnfollowResult {
			res := UnfollowResult{Playlist: p}
			if opts.DryRun {
				return res
			}
			if err := ctx.Err(); err != nil {
				res.Err = err
				return res
			}
			if err := scanner.Unfollow(ctx, p); err != nil {
				res.Err = err
				return res
			}
			res.Unfollowed = true
			return res
		},
		func(res UnfollowResult) {
			completed++
			e.sendProgress(progress, unfollowDoneUpdate(completed, len(matches), res))
		},
	)

	for _, u := range result.Results {
		switch {
		case u.Err != nil:
			result.Failed++
		case u.Unfollowed:
			result.Unfollowed++
		}
	}

	logger.Info("cleanup finished", "matched", result.Matched, "unfollowed", result.Unfollowed, "failed", result.Failed, "dry_run", opts.DryRun)
	return result, nil
}

type indexed[R any] struct {
	index int
	value R
}

// fanOut runs work for every job on a pool of workers and returns the results in job order.
//
// done is called from the collecting goroutine as each result arrives, in completion order.
func fanOut[J, R any](ctx context.Context, workers int, jobs []J, work func(context.Context, J) R, done func(R)) []R {
	if len(jobs) == 0 {
		return nil
	}

	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	results := make(chan indexed[R], len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < min(max(workers, 1), len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results <- indexed[R]{index: i, value: work(ctx, jobs[i])}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]R, len(jobs))
	for r := range results {
		out[r.index] = r.value
		if done != nil {
			done(r.value)
		}
	}
	return out
}
