package main

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/naveenspark/tempo/internal/report"
)

func (c *cli) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summaries by day, project or tag",
	}
	for _, k := range report.Kinds {
		cmd.AddCommand(c.reportKindCmd(k))
	}
	return cmd
}

func (c *cli) reportKindCmd(kind report.Kind) *cobra.Command {
	var from, to string
	var csvOut, copyOut bool
	short := map[report.Kind]string{
		report.KindDaily:    "Time per day (default: last 7 days)",
		report.KindProjects: "Time per project (default: last 30 days)",
		report.KindTags:     "Time per tag (default: last 30 days)",
	}[kind]
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			t, err := ws.Reports.Table(ctx, kind, start, end)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if copyOut {
				if err := clipboard.WriteAll(t.CSV()); err != nil {
					return fmt.Errorf("copy report: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied report as CSV.")
			}
			if csvOut {
				return t.WriteCSV(out)
			}
			fmt.Fprint(out, t.Text())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "write CSV instead of a table")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the report to the clipboard as CSV")
	return cmd
}

// parseRange turns inclusive local dates into a [start, end) window. Unset
// bounds stay zero so the report's default window applies.
func parseRange(from, to string) (start, end time.Time, err error) {
	if from != "" {
		if start, err = time.ParseInLocation(time.DateOnly, from, time.Local); err != nil {
			return start, end, fmt.Errorf("invalid --from %q, want YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if end, err = time.ParseInLocation(time.DateOnly, to, time.Local); err != nil {
			return start, end, fmt.Errorf("invalid --to %q, want YYYY-MM-DD", to)
		}
		end = end.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return start, end, fmt.Errorf("--from %s is after --to %s", from, to)
	}
	return start, end, nil
}
