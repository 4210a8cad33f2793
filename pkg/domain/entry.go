package domain

import (
	"math"
	"strings"
	"time"
)

// TimeEntry is a recorded (or running) stretch of work.
type TimeEntry struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Duration    *float64   `json:"duration,omitempty"` // seconds, set once stopped
	ProjectID   *string    `json:"project_id,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UserID      string     `json:"user_id"`
}

// Running reports whether the entry has not been stopped yet.
func (e TimeEntry) Running() bool {
	return e.EndTime == nil
}

// DurationSeconds returns the recorded duration floored to whole seconds.
// ok is false when the entry carries no duration.
func (e TimeEntry) DurationSeconds() (secs int64, ok bool) {
	if e.Duration == nil {
		return 0, false
	}
	return int64(math.Floor(*e.Duration)), true
}

// Complete stops e at now: it sets the end time and a duration floored to
// whole seconds, computed from the timestamps. now before the start counts
// as zero.
func (e *TimeEntry) Complete(now time.Time) {
	if now.Before(e.StartTime) {
		now = e.StartTime
	}
	end := now
	secs := math.Floor(end.Sub(e.StartTime).Seconds())
	e.EndTime = &end
	e.Duration = &secs
	e.UpdatedAt = now
}

// TimerStart is the payload for starting a timer.
type TimerStart struct {
	Description string   `json:"description"`
	ProjectID   *string  `json:"project_id"`
	Tags        []string `json:"tags"`
}

// TimeEntryUpdate carries a partial update; nil fields are left untouched.
// An empty ProjectID detaches the entry from its project.
type TimeEntryUpdate struct {
	Description *string    `json:"description,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u TimeEntryUpdate) Empty() bool {
	return u.Description == nil && u.ProjectID == nil && u.Tags == nil &&
		u.StartTime == nil && u.EndTime == nil
}

// Apply returns e with the non-nil fields of u applied. The duration is
// recomputed when both ends of the entry are known.
func (u TimeEntryUpdate) Apply(e TimeEntry) TimeEntry {
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.ProjectID != nil {
		e.ProjectID = nil
		if id := *u.ProjectID; id != "" {
			e.ProjectID = &id
		}
	}
	if u.Tags != nil {
		e.Tags = NormalizeTags(u.Tags)
	}
	if u.StartTime != nil {
		e.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		end := *u.EndTime
		e.EndTime = &end
	}
	if e.EndTime != nil && (u.StartTime != nil || u.EndTime != nil) {
		d := e.EndTime.Sub(e.StartTime).Seconds()
		e.Duration = &d
	}
	return e
}

// NormalizeTags turns a tag list into a set: blanks and duplicates are
// dropped, first-seen order is kept. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
