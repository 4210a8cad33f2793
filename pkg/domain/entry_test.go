package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"keeps order", []string{"design", "ui"}, []string{"design", "ui"}},
		{"drops duplicates", []string{"design", "ui", "design"}, []string{"design", "ui"}},
		{"trims and drops blanks", []string{" design ", "", "  "}, []string{"design"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDurationSeconds(t *testing.T) {
	d := 5.9
	e := TimeEntry{Duration: &d}
	secs, ok := e.DurationSeconds()
	if !ok || secs != 5 {
		t.Errorf("DurationSeconds() = %d, %v, want 5, true", secs, ok)
	}

	if _, ok := (TimeEntry{}).DurationSeconds(); ok {
		t.Error("DurationSeconds() ok = true for entry without duration")
	}
}

func TestTimeEntryUpdate_Apply(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	old := 10.0
	e := TimeEntry{ID: "e1", Description: "old", StartTime: start, EndTime: &end, Duration: &old, Tags: []string{"a"}}

	desc := "new"
	newEnd := start.Add(2 * time.Hour)
	got := TimeEntryUpdate{Description: &desc, EndTime: &newEnd, Tags: []string{"b", "b"}}.Apply(e)

	if got.Description != "new" {
		t.Errorf("Description = %q, want %q", got.Description, "new")
	}
	if !reflect.DeepEqual(got.Tags, []string{"b"}) {
		t.Errorf("Tags = %q, want [b]", got.Tags)
	}
	if got.Duration == nil || *got.Duration != 7200 {
		t.Errorf("Duration = %v, want 7200", got.Duration)
	}
	if *e.Duration != 10 {
		t.Error("Apply mutated the original entry")
	}
}

func TestTimeEntryUpdate_Empty(t *testing.T) {
	if !(TimeEntryUpdate{}).Empty() {
		t.Error("zero update should be empty")
	}
	desc := ""
	if (TimeEntryUpdate{Description: &desc}).Empty() {
		t.Error("update clearing the description is not empty")
	}
}

func TestTimeEntryUpdate_ApplyProject(t *testing.T) {
	p := "p1"
	e := TimeEntry{ID: "e1"}

	got := TimeEntryUpdate{ProjectID: &p}.Apply(e)
	if got.ProjectID == nil || *got.ProjectID != "p1" {
		t.Fatalf("ProjectID = %v, want p1", got.ProjectID)
	}

	none := ""
	got = TimeEntryUpdate{ProjectID: &none}.Apply(got)
	if got.ProjectID != nil {
		t.Errorf("ProjectID = %q, want nil after clearing", *got.ProjectID)
	}
}

func TestTimeEntry_Complete(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	e := TimeEntry{StartTime: start}
	e.Complete(start.Add(5*time.Second + 900*time.Millisecond))
	if e.EndTime == nil || !e.EndTime.Equal(start.Add(5*time.Second+900*time.Millisecond)) {
		t.Errorf("EndTime = %v", e.EndTime)
	}
	if secs, ok := e.DurationSeconds(); !ok || secs != 5 {
		t.Errorf("DurationSeconds() = %d, %v, want 5, true", secs, ok)
	}
	if e.Running() {
		t.Error("Running() = true after Complete")
	}

	early := TimeEntry{StartTime: start}
	early.Complete(start.Add(-time.Minute))
	if secs, _ := early.DurationSeconds(); secs != 0 || !early.EndTime.Equal(start) {
		t.Errorf("clock skew: duration = %d, end = %v, want 0 at start", secs, early.EndTime)
	}
}
