package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	log, closer, err := New(Options{Level: "info", Format: "json", Dir: dir, Stderr: StderrNever})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	timerLog := Component(log, "timer")
	timerLog.Info().Str("entry_id", "e1").Msg("timer started")
	log.Debug().Msg("dropped below level")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), data)
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event["component"] != "timer" || event["service"] != "tempo" || event["entry_id"] != "e1" {
		t.Errorf("event = %v, want component=timer service=tempo entry_id=e1", event)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, closer, err := New(Options{Level: "loud", Stderr: StderrNever})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closer.Close() //nolint:errcheck

	if got := log.GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
}

func TestShouldLogToStderr(t *testing.T) {
	if !shouldLogToStderr(StderrAlways, zerolog.InfoLevel) {
		t.Error("always mode should log to stderr")
	}
	if shouldLogToStderr(StderrNever, zerolog.DebugLevel) {
		t.Error("never mode should not log to stderr")
	}
	if !shouldLogToStderr(StderrAuto, zerolog.DebugLevel) {
		t.Error("auto mode should log to stderr at debug level")
	}
}
