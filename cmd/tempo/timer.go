package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/naveenspark/tempo/internal/project"
	"github.com/naveenspark/tempo/internal/report"
	"github.com/naveenspark/tempo/pkg/domain"
)

// resolveProject maps a project id or name to its id. "none" and "" detach.
func resolveProject(projects *project.Store, ref string) (string, error) {
	if ref == "" || strings.EqualFold(ref, "none") {
		return "", nil
	}
	p, ok := projects.Find(ref)
	if !ok {
		return "", fmt.Errorf("unknown project %q, see: tempo projects list", ref)
	}
	if p.IsArchived {
		return "", fmt.Errorf("project %q is archived", p.Name)
	}
	return p.ID, nil
}

// describe renders a timer or entry description with its project and tags.
func describe(desc string, projectName string, tags []string) string {
	if desc == "" {
		desc = "(no description)"
	}
	out := fmt.Sprintf("%q", desc)
	if projectName != "" {
		out += " [" + projectName + "]"
	}
	for _, t := range tags {
		out += " #" + t
	}
	return out
}

func (c *cli) startCmd() *cobra.Command {
	var projectRef string
	var tags []string
	cmd := &cobra.Command{
		Use:   "start [description]",
		Short: "Start a timer",
		Example: `  tempo start Design review --project Website --tag design
  tempo start`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			var projectID *string
			id, err := resolveProject(ws.Projects, projectRef)
			if err != nil {
				return err
			}
			if id != "" {
				projectID = &id
			}
			desc := strings.Join(args, " ")
			e, err := ws.Timer().Start(ctx, projectID, desc, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s at %s\n",
				describe(e.Description, ws.Projects.Name(e.ProjectID), e.Tags),
				e.StartTime.Local().Format("15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectRef, "project", "P", "", "project id or name")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag, repeatable")
	return cmd
}

func (c *cli) stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			e, err := ws.Timer().Stop(ctx)
			if err != nil {
				return err
			}
			secs, _ := e.DurationSeconds()
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s after %s\n",
				describe(e.Description, ws.Projects.Name(e.ProjectID), e.Tags),
				report.FormatDuration(float64(secs)))
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, snap, err := c.session(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store := ws.Timer()
			st := store.Timer()
			if !st.IsRunning {
				fmt.Fprintf(out, "No timer running (%s).\n", reachability(snap.Session))
				return nil
			}
			line := func(st domain.TimerState, elapsed time.Duration) string {
				return fmt.Sprintf("%s  %s", report.FormatClock(elapsed), describe(st.Description, ws.Projects.Name(st.ProjectID), st.Tags))
			}
			if !watch {
				fmt.Fprintln(out, line(st, store.Elapsed(time.Now())))
				return nil
			}
			fmt.Fprint(out, "\r"+line(st, store.Elapsed(time.Now())))
			store.Watch(ctx, func(st domain.TimerState, elapsed time.Duration) {
				if !st.IsRunning {
					return
				}
				fmt.Fprint(out, "\r"+line(st, elapsed))
			})
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep updating once a second until interrupted")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var (
		description string
		projectRef  string
		tags        []string
		startedAt   string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change the running timer",
		Example: `  tempo edit --description "Design review" --tag design
  tempo edit --project none
  tempo edit --started 09:30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			var u domain.TimeEntryUpdate
			flags := cmd.Flags()
			if flags.Changed("description") {
				u.Description = &description
			}
			if flags.Changed("project") {
				id, err := resolveProject(ws.Projects, projectRef)
				if err != nil {
					return err
				}
				u.ProjectID = &id
			}
			if flags.Changed("tag") {
				u.Tags = domain.NormalizeTags(tags)
			}
			if startedAt != "" {
				t, err := parseClock(startedAt, time.Now())
				if err != nil {
					return err
				}
				u.StartTime = &t
			}
			if u.Empty() {
				return errors.New("nothing to change, see: tempo edit --help")
			}

			store := ws.Timer()
			if !store.Timer().IsRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "No timer running.")
				return nil
			}
			e, err := store.Update(ctx, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", describe(e.Description, ws.Projects.Name(e.ProjectID), e.Tags))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&projectRef, "project", "P", "", `project id or name, "none" to detach`)
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replace the tags, repeatable")
	cmd.Flags().StringVar(&startedAt, "started", "", "start time today, HH:MM")
	return cmd
}

// parseClock parses "HH:MM" as a time on now's date, in now's location.
func parseClock(s string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if at.After(now) {
		return time.Time{}, fmt.Errorf("start time %s is in the future", s)
	}
	return at, nil
}

func (c *cli) logCmd() *cobra.Command {
	var limit, skip int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List recent time entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			entries, err := ws.Timer().Entries(ctx, skip, limit)
			if err != nil {
				return err
			}
			writeEntries(cmd.OutOrStdout(), entries, ws.Projects.Name)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	cmd.Flags().IntVar(&skip, "skip", 0, "entries to skip")
	return cmd
}

func writeEntries(w io.Writer, entries []domain.TimeEntry, projectName func(*string) string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDURATION\tDESCRIPTION\tPROJECT\tTAGS")
	for _, e := range entries {
		dur := "running"
		if secs, ok := e.DurationSeconds(); ok {
			dur = report.FormatDuration(float64(secs))
		}
		desc := e.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.StartTime.Local().Format("2006-01-02 15:04"), dur, desc,
			projectName(e.ProjectID), strings.Join(e.Tags, ","))
	}
	tw.Flush() //nolint:errcheck
}
