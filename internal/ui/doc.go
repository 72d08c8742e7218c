// Package ui styles terminal output for the monthlies CLI with lipgloss.
//
// A [Palette] renders titles, success, error, warning and help text, and turns [tasks.ProgressUpdate] values into
// progress lines as a run advances.
package ui
