package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/monthlies/internal/tasks"
)

// ProgressLine renders a single progress update as one styled line.
func (p *Palette) ProgressLine(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.FetchTracks, tasks.FetchPlaylists:
		return "📥 " + u.Message
	case tasks.BucketTracks:
		return "🗂  " + u.Message
	case tasks.WriteMonth:
		if res, ok := u.Data.(tasks.PlaylistResult); ok && !res.Success {
			return "   " + p.Error(u.Message)
		}
		return "   " + p.OK(u.Message)
	case tasks.UnfollowPlaylists:
		res, ok := u.Data.(tasks.UnfollowResult)
		switch {
		case ok && res.Err != nil:
			return "   " + p.Error(u.Message)
		case ok && !res.Unfollowed:
			return "   " + p.Help(u.Message)
		}
		return "   " + p.OK(u.Message)
	default:
		return u.Message
	}
}

// WatchProgress prints every update received on ch to w until ch is closed. The returned channel is closed once the
// last update has been written.
func (p *Palette) WatchProgress(w io.Writer, ch <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			fmt.Fprintln(w, p.ProgressLine(update))
		}
	}()
	return done
}
