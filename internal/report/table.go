package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/naveenspark/tempo/pkg/domain"
)

// Table is a rendered report: a header and string rows.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	// Total is the summed duration in seconds across all rows.
	Total float64
}

// DailyTable renders daily rows.
func DailyTable(rows []domain.DailySummary) Table {
	t := Table{Title: "Daily", Header: []string{"date", "duration", "entries"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Date, FormatDuration(r.TotalDuration), strconv.Itoa(r.EntryCount)})
		t.Total += r.TotalDuration
	}
	return t
}

// ProjectTable renders project rows.
func ProjectTable(rows []domain.ProjectSummary) Table {
	t := Table{Title: "Projects", Header: []string{"project", "duration", "entries"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ProjectName, FormatDuration(r.TotalDuration), strconv.Itoa(r.EntryCount)})
		t.Total += r.TotalDuration
	}
	return t
}

// TagTable renders tag rows.
func TagTable(rows []domain.TagSummary) Table {
	t := Table{Title: "Tags", Header: []string{"tag", "duration", "entries"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Tag, FormatDuration(r.TotalDuration), strconv.Itoa(r.EntryCount)})
		t.Total += r.TotalDuration
	}
	return t
}

// WriteCSV writes the header and rows as CSV.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("report.WriteCSV: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("report.WriteCSV: %w", err)
	}
	return nil
}

// CSV returns the table as a CSV string.
func (t Table) CSV() string {
	var b strings.Builder
	_ = t.WriteCSV(&b)
	return b.String()
}

// Text renders the table with padded columns.
func (t Table) Text() string {
	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = len(h)
	}
	for _, r := range t.Rows {
		for i, c := range r {
			if i < len(widths) && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	var b strings.Builder
	line := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				b.WriteString(c)
				continue
			}
			fmt.Fprintf(&b, "%-*s", widths[i], c)
		}
		b.WriteString("\n")
	}
	line(t.Header)
	for _, r := range t.Rows {
		line(r)
	}
	if len(t.Rows) == 0 {
		b.WriteString("no entries\n")
		return b.String()
	}
	fmt.Fprintf(&b, "total %s\n", FormatDuration(t.Total))
	return b.String()
}

// FormatDuration renders seconds as 1h02m03s, 2m03s or 3s. Fractions are
// floored and negative values are treated as zero.
func FormatDuration(secs float64) string {
	if secs < 0 || math.IsNaN(secs) {
		secs = 0
	}
	total := int64(math.Floor(secs))
	h, m, s := total/3600, (total%3600)/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatClock renders d as HH:MM:SS for running timers.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
