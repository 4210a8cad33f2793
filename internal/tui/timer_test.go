package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/naveenspark/tempo/internal/timer"
	"github.com/naveenspark/tempo/pkg/domain"
)

func runningSnapshot(start time.Time) timer.Snapshot {
	return timer.Snapshot{
		Timer: domain.TimerState{
			EntryID:     "e1",
			Description: "write docs",
			StartTime:   start,
			Tags:        []string{"docs"},
			IsRunning:   true,
		},
		Backend: "local",
	}
}

func TestTimerViewIdle(t *testing.T) {
	m := newTimerModel(nil)
	out := m.View()
	if !strings.Contains(out, "no timer running") {
		t.Errorf("idle view missing status: %q", out)
	}
	if !strings.Contains(out, "nothing recorded yet") {
		t.Errorf("idle view missing empty recent list: %q", out)
	}
	if !strings.Contains(m.helpKeys(), "start") {
		t.Error("expected start in the help bar")
	}
}

func TestTimerViewRunningClock(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m := newTimerModel(nil)
	m.width = 80
	m.snap = runningSnapshot(start)
	m, _ = m.Update(clockTickMsg(start.Add(90 * time.Second)))

	out := m.View()
	if !strings.Contains(out, "00:01:30") {
		t.Errorf("expected elapsed clock 00:01:30 in %q", out)
	}
	if !strings.Contains(out, "write docs") || !strings.Contains(out, "#docs") {
		t.Errorf("expected description and tags in %q", out)
	}
	if !strings.Contains(m.helpKeys(), "stop") {
		t.Error("expected stop in the help bar")
	}
}

func TestTimerEditingEscCancels(t *testing.T) {
	m := newTimerModel(nil)
	m, _ = m.Update(key("i"))
	if !m.editing {
		t.Fatal("expected editing after 'i'")
	}
	m, _ = m.Update(key("a"))
	m, _ = m.Update(key("esc"))
	if m.editing {
		t.Error("expected esc to leave editing")
	}
	if m.input != "a" {
		t.Errorf("expected the draft kept, got %q", m.input)
	}
}

func TestTimerEditPrefillsRunningDescription(t *testing.T) {
	m := newTimerModel(nil)
	m.snap = runningSnapshot(time.Now())
	m, _ = m.Update(key("i"))
	if m.input != "write docs #docs" {
		t.Errorf("expected the running description prefilled, got %q", m.input)
	}
}

func TestTimerCursorStaysInRange(t *testing.T) {
	m := newTimerModel(nil)
	m.snap.Recent = []domain.TimeEntry{{ID: "a"}, {ID: "b"}}
	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m, _ = m.Update(key("k"))
	m, _ = m.Update(key("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestTimerOpErrors(t *testing.T) {
	m := newTimerModel(nil)
	m, _ = m.Update(timerOpMsg{op: "stop", err: errors.New("boom")})
	if m.err != "stop failed: boom" {
		t.Errorf("err = %q", m.err)
	}
	m, _ = m.Update(timerOpMsg{op: "stop", err: timer.ErrSessionEnded})
	if m.err != "stop failed: boom" {
		t.Errorf("a discarded result should not replace the error, got %q", m.err)
	}
	m, _ = m.Update(timerOpMsg{op: "start"})
	if m.err != "" {
		t.Errorf("expected success to clear the error, got %q", m.err)
	}
}

func TestTimerCopyResult(t *testing.T) {
	m := newTimerModel(nil)
	m, _ = m.Update(copyResultMsg{what: "entry"})
	if m.status != "copied entry" {
		t.Errorf("status = %q", m.status)
	}
	m, _ = m.Update(copyResultMsg{what: "entry", err: errors.New("no clipboard")})
	if m.status != "copy failed: no clipboard" {
		t.Errorf("status = %q", m.status)
	}
}
