package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/monthlies/internal/tasks"
)

func TestPalette(t *testing.T) {
	p := DefaultPalette()

	t.Run("styles keep the text", func(t *testing.T) {
		for _, render := range []func(string) string{p.Title, p.OK, p.Error, p.Warn, p.Help} {
			if out := render("hello"); !strings.Contains(out, "hello") {
				t.Errorf("expected rendered text to contain input, got %q", out)
			}
		}
	})

	t.Run("ProgressLine", func(t *testing.T) {
		tests := []struct {
			name   string
			update tasks.ProgressUpdate
			want   string
		}{
			{name: "fetch", update: tasks.ProgressUpdate{Phase: tasks.FetchTracks, Message: "Fetching"}, want: "📥 Fetching"},
			{name: "month ok", update: tasks.ProgressUpdate{Phase: tasks.WriteMonth, Message: "10 2016", Data: tasks.PlaylistResult{Success: true}}, want: "10 2016"},
			{name: "month failed", update: tasks.ProgressUpdate{Phase: tasks.WriteMonth, Message: "11 2016", Data: tasks.PlaylistResult{}}, want: "11 2016"},
			{name: "unfollow planned", update: tasks.ProgressUpdate{Phase: tasks.UnfollowPlaylists, Message: "would unfollow 07 2017", Data: tasks.UnfollowResult{}}, want: "would unfollow 07 2017"},
			{name: "unfollow failed", update: tasks.ProgressUpdate{Phase: tasks.UnfollowPlaylists, Message: "07 2017", Data: tasks.UnfollowResult{Err: errors.New("x")}}, want: "07 2017"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := p.ProgressLine(tt.update); !strings.Contains(got, tt.want) {
					t.Errorf("expected %q in %q", tt.want, got)
				}
			})
		}
	})

	t.Run("WatchProgress drains until closed", func(t *testing.T) {
		var buf bytes.Buffer
		ch := make(chan tasks.ProgressUpdate, 3)
		done := p.WatchProgress(&buf, ch)

		ch <- tasks.ProgressUpdate{Phase: tasks.FetchTracks, Message: "one"}
		ch <- tasks.ProgressUpdate{Phase: tasks.BucketTracks, Message: "two"}
		close(ch)
		<-done

		if lines := strings.Count(buf.String(), "\n"); lines != 2 {
			t.Errorf("expected 2 lines, got %d: %q", lines, buf.String())
		}
	})
}
