package tui

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/naveenspark/tempo/pkg/domain"
)

func TestEditRuneAddCharacters(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append to empty", "", "a", "a"},
		{"append letter", "fi", "x", "fix"},
		{"append digit", "v", "2", "v2"},
		{"append space", "fix", " ", "fix "},
		{"space key name", "fix", "space", "fix "},
		{"append hash", "fix ", "#", "fix #"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, tc.key)
			if got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}

func TestEditRuneBackspace(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"backspace on single char", "a", ""},
		{"backspace on longer string", "hello", "hell"},
		{"backspace on empty does nothing", "", ""},
		{"backspace removes whole rune", "café", "caf"},
		{"backspace removes emoji", "done\U0001f600", "done"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, "backspace")
			if got != tc.want {
				t.Errorf("editRune(%q, 'backspace') = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestEditRuneIgnoresNonPrintableKeys(t *testing.T) {
	nonPrintable := []string{
		"enter",
		"esc",
		"up",
		"down",
		"left",
		"right",
		"ctrl+c",
		"ctrl+r",
		"tab",
		"shift+tab",
		"f1",
		"home",
		"end",
	}

	original := "hello"
	for _, key := range nonPrintable {
		t.Run(key, func(t *testing.T) {
			got := editRune(original, key)
			if got != original {
				t.Errorf("editRune(%q, %q) = %q, want unchanged %q", original, key, got, original)
			}
		})
	}
}

func TestEditRuneMaxInputLen(t *testing.T) {
	atLimit := strings.Repeat("a", maxInputLen)
	belowLimit := strings.Repeat("a", maxInputLen-1)
	cjkAtLimit := strings.Repeat("你", maxInputLen)

	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"at limit rejects new char", atLimit, "b", atLimit},
		{"below limit accepts new char", belowLimit, "b", belowLimit + "b"},
		{"at limit backspace still works", atLimit, "backspace", atLimit[:len(atLimit)-1]},
		{"CJK at limit rejects new rune", cjkAtLimit, "好", cjkAtLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := editRune(tt.text, tt.key)
			if got != tt.want {
				t.Errorf("editRune(..., %q): len(got)=%d runes, len(want)=%d runes",
					tt.key, len([]rune(got)), len([]rune(tt.want)))
			}
		})
	}
}

func TestTruncStr(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"under limit", "hello", 10, "hello"},
		{"at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hell…"},
		{"empty string", "", 5, ""},
		{"zero width", "hello", 0, ""},
		{"CJK chars", "你好世界", 3, "你好…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncStr(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncStr(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateToHeight(t *testing.T) {
	input := "line1\nline2\nline3\nline4\nline5\n"

	result := truncateToHeight(input, 3)
	if strings.Count(result, "\n") > 3 {
		t.Errorf("truncateToHeight(5 lines, 3) = %q, want at most 3 lines", result)
	}
	if strings.Contains(result, "line4") {
		t.Errorf("truncateToHeight result should not contain line4: %q", result)
	}
	if got := truncateToHeight(input, 10); got != input {
		t.Errorf("truncateToHeight within limit = %q, want input unchanged", got)
	}
	if got := truncateToHeight(input, 0); got != input {
		t.Errorf("truncateToHeight(0) = %q, want input unchanged", got)
	}
}

func TestRenderInputMasked(t *testing.T) {
	got := renderInput("password  ", "hunter2", "", false, true, 0)
	if strings.Contains(got, "hunter2") {
		t.Errorf("masked input leaked its value: %q", got)
	}
	if !strings.Contains(got, strings.Repeat("•", 7)) {
		t.Errorf("masked input = %q, want 7 bullets", got)
	}
}

func TestRenderInputPlaceholder(t *testing.T) {
	got := renderInput("> ", "", "what are you working on?", false, false, 0)
	if !strings.Contains(got, "what are you working on?") {
		t.Errorf("unfocused empty input should show placeholder: %q", got)
	}
	got = renderInput("> ", "", "what are you working on?", true, false, 0)
	if strings.Contains(got, "what are you working on?") {
		t.Errorf("focused empty input should hide placeholder: %q", got)
	}
}

func TestParseDescription(t *testing.T) {
	tests := []struct {
		raw      string
		wantDesc string
		wantTags []string
	}{
		{"fix login", "fix login", nil},
		{"fix login #auth #Bug", "fix login", []string{"auth", "Bug"}},
		{"#review", "", []string{"review"}},
		{"  spaced   out  #a #a ", "spaced out", []string{"a"}},
		{"lonely # hash", "lonely # hash", nil},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			desc, tags := parseDescription(tc.raw)
			if desc != tc.wantDesc {
				t.Errorf("parseDescription(%q) desc = %q, want %q", tc.raw, desc, tc.wantDesc)
			}
			if len(tags) != len(tc.wantTags) || (len(tags) > 0 && !slices.Equal(tags, tc.wantTags)) {
				t.Errorf("parseDescription(%q) tags = %v, want %v", tc.raw, tags, tc.wantTags)
			}
		})
	}
}

func TestJoinDescriptionRoundTrip(t *testing.T) {
	raw := joinDescription("fix login", []string{"auth", "bug"})
	if raw != "fix login #auth #bug" {
		t.Fatalf("joinDescription = %q", raw)
	}
	desc, tags := parseDescription(raw)
	if desc != "fix login" || !slices.Equal(tags, []string{"auth", "bug"}) {
		t.Errorf("parseDescription(joinDescription) = %q %v", desc, tags)
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tc := range tests {
		if got := formatAgo(now.Add(-tc.ago), now); got != tc.want {
			t.Errorf("formatAgo(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestEntryLine(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.Local)
	end := start.Add(90 * time.Minute)
	secs := 5400.0
	e := domain.TimeEntry{
		ID:          "e1",
		Description: "planning",
		StartTime:   start,
		EndTime:     &end,
		Duration:    &secs,
		Tags:        []string{"meeting"},
	}
	got := entryLine(e, "Website")
	want := "2026-05-01 09:00  1h30m00s  planning  [Website]  #meeting"
	if got != want {
		t.Errorf("entryLine = %q, want %q", got, want)
	}
}
