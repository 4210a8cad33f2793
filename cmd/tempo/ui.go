package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tealStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5eead4")).Bold(true)
	deepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf")).Bold(true)
	amberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5b942")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	italicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// wordmark renders the spaced TEMPO logo in alternating teal.
func wordmark() string {
	const letters = "TEMPO"
	parts := make([]string, 0, len(letters))
	for i, ch := range letters {
		style := tealStyle
		if i%2 == 1 {
			style = deepStyle
		}
		parts = append(parts, style.Render(string(ch)))
	}
	return strings.Join(parts, "  ")
}

func printUpdateSuccess(w io.Writer, oldVersion, newVersion string) {
	fmt.Fprintf(w, "\n  %s\n\n  %s  %s  %s\n", wordmark(),
		mutedStyle.Render(oldVersion), tealStyle.Render("→"), tealStyle.Render(newVersion))
	fmt.Fprintf(w, "\n  %s %s\n\n", amberStyle.Render("│"), italicStyle.Render("Updated. Your timers carry on where they left off."))
}

func printAlreadyCurrent(w io.Writer, currentVersion string) {
	fmt.Fprintf(w, "\n  %s\n\n  %s  %s  %s\n", wordmark(),
		tealStyle.Render(currentVersion), amberStyle.Render("✦"), italicStyle.Render("current"))
	fmt.Fprintf(w, "\n  %s %s\n\n", amberStyle.Render("│"), italicStyle.Render("Nothing to update."))
}
