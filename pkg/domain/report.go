package domain

// DailySummary totals completed entries per calendar day (YYYY-MM-DD).
type DailySummary struct {
	Date          string  `json:"date"`
	TotalDuration float64 `json:"total_duration"`
	EntryCount    int     `json:"entry_count"`
}

// ProjectSummary totals completed entries per project. ProjectID is nil for
// entries without a project.
type ProjectSummary struct {
	ProjectID     *string `json:"project_id"`
	ProjectName   string  `json:"project_name"`
	TotalDuration float64 `json:"total_duration"`
	EntryCount    int     `json:"entry_count"`
}

// TagSummary totals completed entries per tag.
type TagSummary struct {
	Tag           string  `json:"tag"`
	TotalDuration float64 `json:"total_duration"`
	EntryCount    int     `json:"entry_count"`
}
