// package formatter renders run summaries and playlist listings as text, JSON or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/shared"
	"github.com/desertthunder/monthlies/internal/tasks"
)

// Format is an output format for summaries.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat validates a --format flag value. The empty string selects [Text].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, CSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json or csv)", shared.ErrInvalidFlag, s)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type playlistReport struct {
	tasks.PlaylistResult
	Error string `json:"error,omitempty"`
}

type generateReport struct {
	*tasks.GenerateResult
	Playlists []playlistReport `json:"playlists"`
}

type unfollowReport struct {
	tasks.UnfollowResult
	Error string `json:"error,omitempty"`
}

type cleanupReport struct {
	*tasks.CleanupResult
	Results []unfollowReport `json:"results"`
}

// MarshalJSON renders v as JSON, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// GenerateToJSON renders a generate summary, including per-playlist error messages.
func GenerateToJSON(res *tasks.GenerateResult) ([]byte, error) {
	report := generateReport{GenerateResult: res, Playlists: make([]playlistReport, 0, len(res.Playlists))}
	for _, p := range res.Playlists {
		report.Playlists = append(report.Playlists, playlistReport{PlaylistResult: p, Error: errString(p.Err)})
	}
	return MarshalJSON(report, true)
}

// GenerateToCSV renders one row per month with columns: Name, PlaylistID, Tracks, Written, Dropped, Chunks,
// FailedChunks, Status, Error
func GenerateToCSV(res *tasks.GenerateResult) ([]byte, error) {
	rows := [][]string{{"Name", "PlaylistID", "Tracks", "Written", "Dropped", "Chunks", "FailedChunks", "Status", "Error"}}
	for _, p := range res.Playlists {
		rows = append(rows, []string{
			p.Name,
			p.PlaylistID,
			strconv.Itoa(p.Tracks),
			strconv.Itoa(p.Written),
			strconv.Itoa(p.Dropped),
			strconv.Itoa(p.Chunks),
			strconv.Itoa(p.FailedChunks),
			generateStatus(res.DryRun, p),
			errString(p.Err),
		})
	}
	return writeCSV(rows)
}

// GenerateToText renders a human-readable generate summary.
func GenerateToText(res *tasks.GenerateResult) []byte {
	var buf bytes.Buffer

	if res.DryRun {
		buf.WriteString("Dry run: no playlists were created\n")
	}
	buf.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	buf.WriteString(fmt.Sprintf("Saved tracks: %d across %d months", res.TotalTracks, len(res.Playlists)))
	if res.Dropped > 0 {
		buf.WriteString(fmt.Sprintf(" (%d dropped over the monthly cap)", res.Dropped))
	}
	buf.WriteString("\n\n")

	for _, p := range res.Playlists {
		status := generateStatus(res.DryRun, p)
		if p.Err != nil {
			buf.WriteString(fmt.Sprintf("  %s  %-7s  %d/%d tracks: %v\n", p.Name, status, p.Written, p.Tracks, p.Err))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s  %-7s  %d tracks\n", p.Name, status, p.Tracks))
	}

	buf.WriteString(fmt.Sprintf("\nSucceeded: %d, Failed: %d\n", res.Succeeded, res.Failed))
	return buf.Bytes()
}

func generateStatus(dryRun bool, p tasks.PlaylistResult) string {
	switch {
	case dryRun:
		return "planned"
	case p.Success:
		return "created"
	case p.PlaylistID != "":
		return "partial"
	default:
		return "failed"
	}
}

// CleanupToJSON renders a cleanup summary, including per-playlist error messages.
func CleanupToJSON(res *tasks.CleanupResult) ([]byte, error) {
	report := cleanupReport{CleanupResult: res, Results: make([]unfollowReport, 0, len(res.Results))}
	for _, u := range res.Results {
		report.Results = append(report.Results, unfollowReport{UnfollowResult: u, Error: errString(u.Err)})
	}
	return MarshalJSON(report, true)
}

// CleanupToCSV renders one row per matched playlist with columns: ID, Name, Owner, Tracks, Status, Error
func CleanupToCSV(res *tasks.CleanupResult) ([]byte, error) {
	rows := [][]string{{"ID", "Name", "Owner", "Tracks", "Status", "Error"}}
	for _, u := range res.Results {
		rows = append(rows, []string{
			u.Playlist.ID,
			u.Playlist.Name,
			u.Playlist.OwnerID,
			strconv.Itoa(u.Playlist.TrackCount),
			cleanupStatus(res.DryRun, u),
			errString(u.Err),
		})
	}
	return writeCSV(rows)
}

// CleanupToText renders a human-readable cleanup summary.
func CleanupToText(res *tasks.CleanupResult) []byte {
	var buf bytes.Buffer

	if res.DryRun {
		buf.WriteString("Dry run: no playlists were unfollowed\n")
	}
	buf.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	buf.WriteString(fmt.Sprintf("Playlists scanned: %d, generated: %d\n\n", res.Scanned, res.Matched))

	for _, u := range res.Results {
		status := cleanupStatus(res.DryRun, u)
		if u.Err != nil {
			buf.WriteString(fmt.Sprintf("  %s  %-10s  %v\n", u.Playlist.Name, status, u.Err))
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s  %-10s  %s\n", u.Playlist.Name, status, u.Playlist.ID))
	}

	buf.WriteString(fmt.Sprintf("\nUnfollowed: %d, Failed: %d\n", res.Unfollowed, res.Failed))
	buf.WriteString("Unfollowing removes a playlist from your library; it is not deleted for other followers.\n")
	return buf.Bytes()
}

func cleanupStatus(dryRun bool, u tasks.UnfollowResult) string {
	switch {
	case dryRun:
		return "matched"
	case u.Unfollowed:
		return "unfollowed"
	default:
		return "failed"
	}
}

// PlaylistsToCSV converts playlists to CSV format with columns: ID, Name, Owner, Tracks, Visibility
func PlaylistsToCSV(playlists []models.Playlist) ([]byte, error) {
	rows := [][]string{{"ID", "Name", "Owner", "Tracks", "Visibility"}}
	for _, p := range playlists {
		rows = append(rows, []string{p.ID, p.Name, p.OwnerID, strconv.Itoa(p.TrackCount), shared.VisibilityString(p.Public)})
	}
	return writeCSV(rows)
}

// PlaylistsToText converts playlists to an aligned plain-text listing.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer
	for _, p := range playlists {
		buf.WriteString(fmt.Sprintf("%s  %-22s  %4d tracks  %s\n", p.Name, p.ID, p.TrackCount, shared.VisibilityString(p.Public)))
	}
	buf.WriteString(fmt.Sprintf("\n%d generated playlists\n", len(playlists)))
	return buf.Bytes()
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteGenerate renders res in format f to w.
func WriteGenerate(w io.Writer, f Format, res *tasks.GenerateResult) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = GenerateToJSON(res)
	case CSV:
		data, err = GenerateToCSV(res)
	default:
		data = GenerateToText(res)
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

// WriteCleanup renders res in format f to w.
func WriteCleanup(w io.Writer, f Format, res *tasks.CleanupResult) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = CleanupToJSON(res)
	case CSV:
		data, err = CleanupToCSV(res)
	default:
		data = CleanupToText(res)
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

// WritePlaylists renders playlists in format f to w.
func WritePlaylists(w io.Writer, f Format, playlists []models.Playlist) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		if playlists == nil {
			playlists = []models.Playlist{}
		}
		data, err = MarshalJSON(playlists, true)
	case CSV:
		data, err = PlaylistsToCSV(playlists)
	default:
		data = PlaylistsToText(playlists)
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

func write(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
