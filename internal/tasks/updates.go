package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	BucketTracks
	WriteMonth
	FetchPlaylists
	UnfollowPlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case BucketTracks:
		return "bucket_tracks"
	case WriteMonth:
		return "write_month"
	case FetchPlaylists:
		return "fetch_playlists"
	case UnfollowPlaylists:
		return "unfollow_playlists"
	default:
		return ""
	}
}

func fetchTracksUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    0,
		Total:   1,
		Message: "Fetching saved tracks from Spotify...",
	}
}

func bucketedUpdate(tracks, months int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BucketTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Grouped %d tracks into %d months", tracks, months),
	}
}

func monthDoneUpdate(step, total int, res PlaylistResult) ProgressUpdate {
	mark := "✓"
	if !res.Success {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   WriteMonth,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%d tracks)", step, total, mark, res.Name, res.Tracks),
		Data:    res,
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    0,
		Total:   1,
		Message: "Fetching playlists from Spotify...",
	}
}

func matchedPlaylistsUpdate(matched, scanned int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d generated playlists out of %d", matched, scanned),
	}
}

func unfollowDoneUpdate(step, total int, res UnfollowResult) ProgressUpdate {
	var msg string
	switch {
	case res.Err != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Playlist.Name, res.Err)
	case res.Unfollowed:
		msg = fmt.Sprintf("[%d/%d] ✓ unfollowed %s", step, total, res.Playlist.Name)
	default:
		msg = fmt.Sprintf("[%d/%d] would unfollow %s", step, total, res.Playlist.Name)
	}
	return ProgressUpdate{
		Phase:   UnfollowPlaylists,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}
