package domain

import (
	"testing"
	"time"
)

func TestTimerState_Elapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		state TimerState
		now   time.Time
		want  time.Duration
	}{
		{"idle", IdleTimer(), start.Add(time.Hour), 0},
		{"running", TimerState{EntryID: "e1", StartTime: start, IsRunning: true}, start.Add(5 * time.Second), 5 * time.Second},
		{"clock behind start", TimerState{EntryID: "e1", StartTime: start, IsRunning: true}, start.Add(-time.Second), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Elapsed(tt.now); got != tt.want {
				t.Errorf("Elapsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimerFromEntry(t *testing.T) {
	pid := "p1"
	e := TimeEntry{ID: "e1", Description: "Design work", StartTime: time.Now(), ProjectID: &pid, Tags: []string{"design", "design"}}
	s := TimerFromEntry(e)
	if !s.IsRunning || s.EntryID != "e1" {
		t.Errorf("state = %+v, want running e1", s)
	}
	if len(s.Tags) != 1 {
		t.Errorf("Tags = %q, want one tag", s.Tags)
	}
}
