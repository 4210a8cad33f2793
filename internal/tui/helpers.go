package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/naveenspark/tempo/internal/report"
	"github.com/naveenspark/tempo/pkg/domain"
)

// formatAgo renders a timestamp relative to now.
func formatAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// parseDescription splits "fix login #auth #bug" into the description and
// its tags. Words starting with # become tags.
func parseDescription(raw string) (string, []string) {
	var words, tags []string
	for _, w := range strings.Fields(raw) {
		if strings.HasPrefix(w, "#") && len(w) > 1 {
			tags = append(tags, strings.TrimPrefix(w, "#"))
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), domain.NormalizeTags(tags)
}

// entryLine renders a completed entry as plain text, for the clipboard.
func entryLine(e domain.TimeEntry, projectName string) string {
	secs, _ := e.DurationSeconds()
	parts := []string{e.StartTime.Local().Format("2006-01-02 15:04"), report.FormatDuration(float64(secs))}
	desc := e.Description
	if desc == "" {
		desc = "(no description)"
	}
	parts = append(parts, desc)
	if projectName != "" {
		parts = append(parts, "["+projectName+"]")
	}
	for _, t := range e.Tags {
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, "  ")
}
