package tui

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the TEMPO logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "TEMPO" as a slow wave of light, deep teal
// (#12343a) to bright cyan (#5eead4). While a timer runs the wave moves
// faster.
func renderShimmerLogo(frame int, running bool) string {
	const text = "TEMPO"
	n := len(text)
	speed := 0.06
	if running {
		speed = 0.14
	}

	var out string
	t := float64(frame)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		phase := t*speed - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(18 + b*(94-18))
		g := clampByte(52 + b*(234-52))
		bl := clampByte(58 + b*(212-58))
		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		out += lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(string(text[i]))
		if i < n-1 {
			out += "  "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2dd4bf"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	// Running clock
	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5eead4")).
			Bold(true)

	idleClockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#404858")).
			Bold(true)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#2dd4bf")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	inputTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec"))

	onlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0944a"))

	// Selected row background
	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	// Palette tags and projects without a color are hashed into.
	palette = []lipgloss.Color{
		lipgloss.Color("#e06060"),
		lipgloss.Color("#b080d0"),
		lipgloss.Color("#f0944a"),
		lipgloss.Color("#d4a844"),
		lipgloss.Color("#60a0e0"),
		lipgloss.Color("#3ecce4"),
		lipgloss.Color("#c084e0"),
		lipgloss.Color("#43e88c"),
	}
)

// TagStyle returns a bold style with a stable color for tag.
func TagStyle(tag string) lipgloss.Style {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tag))
	return lipgloss.NewStyle().Foreground(palette[h.Sum32()%uint32(len(palette))]).Bold(true)
}

// ProjectStyle returns a style in the project's own color when it is a
// valid #RRGGBB value, or a hashed palette color otherwise.
func ProjectStyle(name, color string) lipgloss.Style {
	if isHexColor(color) {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return TagStyle(name).UnsetBold()
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range strings.ToLower(s[1:]) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// renderTags renders tags as "#a #b".
func renderTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, TagStyle(t).Render("#"+t))
	}
	return strings.Join(parts, " ")
}

// reachabilityBadge renders the online/offline indicator.
func reachabilityBadge(reachable bool) string {
	if reachable {
		return onlineStyle.Render("●") + " " + dimStyle.Render("online")
	}
	return offlineStyle.Render("●") + " " + dimStyle.Render("offline")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins key/label pairs.
func helpBar(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, helpEntry(pairs[i], pairs[i+1]))
	}
	return " " + strings.Join(parts, "  ")
}

// helpView renders the key reference overlay.
func helpView() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5eead4")).
		Bold(true).
		Render("T E M P O")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	sections := []struct {
		name string
		keys []struct{ key, desc string }
	}{
		{"Everywhere", []struct{ key, desc string }{
			{"1 2 3", "timer, projects, reports"},
			{"L", "log out"},
			{"h / esc", "toggle this help"},
			{"q", "quit"},
		}},
		{"Timer", []struct{ key, desc string }{
			{"i", "type a description, #tags allowed"},
			{"enter", "start, or rename the running timer"},
			{"s", "start or stop"},
			{"p", "cycle project"},
			{"j / k", "select a recent entry"},
			{"y", "copy the selected entry"},
			{"d", "delete the selected entry"},
			{"r", "reload from the backend"},
		}},
		{"Projects", []struct{ key, desc string }{
			{"a / e", "add, rename"},
			{"z", "archive or restore"},
			{"x", "delete"},
			{"enter", "use for the next timer"},
		}},
		{"Reports", []struct{ key, desc string }{
			{"tab", "daily, projects, tags"},
			{"y", "copy as CSV"},
		}},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n", title)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render(s.name))
		for _, k := range s.keys {
			fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-8s", k.key)), descStyle.Render(k.desc))
		}
	}
	return b.String()
}
