package backend

import (
	"sort"
	"time"

	"github.com/naveenspark/tempo/pkg/domain"
)

// Default report windows, ending now.
const (
	DailyWindow   = 7 * 24 * time.Hour
	SummaryWindow = 30 * 24 * time.Hour
)

// NoProjectName labels entries without a project in project summaries.
const NoProjectName = "No Project"

// ReportRange fills in zero bounds: end defaults to now, start to end-window.
func ReportRange(start, end time.Time, window time.Duration, now time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-window)
	}
	return start, end
}

// summarizeDaily totals completed entries per UTC start date, oldest first.
func summarizeDaily(entries []domain.TimeEntry) []domain.DailySummary {
	byDay := make(map[string]*domain.DailySummary)
	for _, e := range entries {
		if e.Duration == nil {
			continue
		}
		day := e.StartTime.UTC().Format(time.DateOnly)
		row, ok := byDay[day]
		if !ok {
			row = &domain.DailySummary{Date: day}
			byDay[day] = row
		}
		row.TotalDuration += *e.Duration
		row.EntryCount++
	}

	out := make([]domain.DailySummary, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// summarizeProjects totals completed entries per project, largest first.
func summarizeProjects(entries []domain.TimeEntry, names map[string]string) []domain.ProjectSummary {
	const noProject = ""
	byProject := make(map[string]*domain.ProjectSummary)
	var order []string
	for _, e := range entries {
		if e.Duration == nil {
			continue
		}
		key := noProject
		if e.ProjectID != nil {
			key = *e.ProjectID
		}
		row, ok := byProject[key]
		if !ok {
			row = &domain.ProjectSummary{ProjectName: NoProjectName}
			if key != noProject {
				id := key
				row.ProjectID = &id
				if name, found := names[key]; found {
					row.ProjectName = name
				}
			}
			byProject[key] = row
			order = append(order, key)
		}
		row.TotalDuration += *e.Duration
		row.EntryCount++
	}

	out := make([]domain.ProjectSummary, 0, len(order))
	for _, key := range order {
		out = append(out, *byProject[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalDuration > out[j].TotalDuration })
	return out
}

// summarizeTags totals completed entries per tag, largest first. An entry
// counts once toward each of its tags.
func summarizeTags(entries []domain.TimeEntry) []domain.TagSummary {
	byTag := make(map[string]*domain.TagSummary)
	var order []string
	for _, e := range entries {
		if e.Duration == nil {
			continue
		}
		for _, tag := range domain.NormalizeTags(e.Tags) {
			row, ok := byTag[tag]
			if !ok {
				row = &domain.TagSummary{Tag: tag}
				byTag[tag] = row
				order = append(order, tag)
			}
			row.TotalDuration += *e.Duration
			row.EntryCount++
		}
	}

	out := make([]domain.TagSummary, 0, len(order))
	for _, tag := range order {
		out = append(out, *byTag[tag])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalDuration > out[j].TotalDuration })
	return out
}
