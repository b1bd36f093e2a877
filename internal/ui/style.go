// Package ui holds the terminal styling used by the rotacal CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rotacal/rotacal/internal/schedule"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AF5F"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CFCF"))
)

func RenderHeader(text string) string { return headerStyle.Render(text) }
func RenderPass(text string) string   { return successStyle.Render(text) }
func RenderFail(text string) string   { return errorStyle.Render(text) }
func RenderWarn(text string) string   { return warningStyle.Render(text) }
func RenderMuted(text string) string  { return mutedStyle.Render(text) }
func RenderAccent(text string) string { return accentStyle.Render(text) }

// FieldLabels are the display names of the day entry lines, indexed by
// schedule.DayField.
var FieldLabels = [schedule.NumDayFields]string{
	"1st on",
	"2nd on",
	"3rd on",
	"notes",
}

// RenderDay formats one day entry for terminal output, one line per
// non-empty field. Unsaved entries are flagged.
func RenderDay(entry schedule.DayEntry) string {
	var b strings.Builder

	header := entry.Key.String()
	if entry.Modified {
		header += " " + RenderWarn("(unsaved)")
	}
	b.WriteString(RenderHeader(header))
	b.WriteString("\n")

	empty := true
	for field := schedule.DayField(0); field < schedule.NumDayFields; field++ {
		if entry.Lines[field] == "" {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "  %s  %s\n", RenderMuted(fmt.Sprintf("%-6s", FieldLabels[field])), entry.Lines[field])
	}
	if empty {
		b.WriteString(RenderMuted("  (empty)\n"))
	}
	return b.String()
}

// RenderNote formats one month note for terminal output.
func RenderNote(note schedule.MonthNote) string {
	var b strings.Builder

	header := note.Key.String()
	if note.Modified {
		header += " " + RenderWarn("(unsaved)")
	}
	b.WriteString(RenderHeader(header))
	b.WriteString("\n")

	empty := true
	for _, line := range note.Lines {
		if line == "" {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if empty {
		b.WriteString(RenderMuted("  (empty)\n"))
	}
	return b.String()
}
