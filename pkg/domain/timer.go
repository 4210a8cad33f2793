package domain

import "time"

// TimerState is the client-side view of the running timer.
// Invariant: IsRunning implies EntryID and StartTime are set.
type TimerState struct {
	EntryID     string
	Description string
	StartTime   time.Time
	ProjectID   *string
	Tags        []string
	IsRunning   bool
}

// IdleTimer is the state when nothing is running.
func IdleTimer() TimerState {
	return TimerState{Tags: []string{}}
}

// Elapsed returns how long the timer has been running at now. It is zero
// when idle and never negative.
func (s TimerState) Elapsed(now time.Time) time.Duration {
	if !s.IsRunning || s.StartTime.IsZero() {
		return 0
	}
	d := now.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// TimerFromEntry builds a running TimerState from a backend entry.
func TimerFromEntry(e TimeEntry) TimerState {
	return TimerState{
		EntryID:     e.ID,
		Description: e.Description,
		StartTime:   e.StartTime,
		ProjectID:   e.ProjectID,
		Tags:        NormalizeTags(e.Tags),
		IsRunning:   e.Running(),
	}
}
