package browser

import (
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open https://example.com/docs"},
		{"linux", "xdg-open https://example.com/docs"},
		{"freebsd", "xdg-open https://example.com/docs"},
		{"windows", "rundll32 url.dll,FileProtocolHandler https://example.com/docs"},
	}
	for _, tt := range tests {
		cmd, err := Command(tt.goos, "https://example.com/docs")
		if err != nil {
			t.Fatalf("Command(%q): %v", tt.goos, err)
		}
		if got := strings.Join(cmd.Args, " "); got != tt.want {
			t.Errorf("Command(%q) = %q, want %q", tt.goos, got, tt.want)
		}
	}
}

func TestCommandUnsupported(t *testing.T) {
	if _, err := Command("plan9", "https://example.com"); err == nil {
		t.Fatal("expected error for plan9")
	}
}
