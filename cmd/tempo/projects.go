package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/naveenspark/tempo/internal/workspace"
	"github.com/naveenspark/tempo/pkg/domain"
)

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		c.projectsListCmd(),
		c.projectsAddCmd(),
		c.projectsEditCmd(),
		c.projectsArchiveCmd(),
		c.projectsRemoveCmd(),
	)
	return cmd
}

// findProject resolves a project id or name against the loaded cache.
func findProject(ws *workspace.Workspace, ref string) (domain.Project, error) {
	p, ok := ws.Projects.Find(ref)
	if !ok {
		return domain.Project{}, fmt.Errorf("unknown project %q, see: tempo projects list", ref)
	}
	return p, nil
}

func (c *cli) projectsListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			if !ws.Projects.Loaded() {
				if _, err := ws.Projects.Refresh(ctx); err != nil {
					return err
				}
			}
			projects := ws.Projects.List(all)
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects yet. Add one with: tempo projects add NAME")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tSTATUS\tDESCRIPTION")
			for _, p := range projects {
				status := "active"
				if p.IsArchived {
					status = "archived"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Color, status, p.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include archived projects")
	return cmd
}

func (c *cli) projectsAddCmd() *cobra.Command {
	var req domain.ProjectCreate
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			req.Name = args[0]
			p, err := ws.Projects.Create(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&req.Color, "color", "c", "", "color as #RRGGBB")
	return cmd
}

func (c *cli) projectsEditCmd() *cobra.Command {
	var name, description, color string
	cmd := &cobra.Command{
		Use:   "edit PROJECT",
		Short: "Rename or recolor a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			p, err := findProject(ws, args[0])
			if err != nil {
				return err
			}
			var u domain.ProjectUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = &name
			}
			if flags.Changed("description") {
				u.Description = &description
			}
			if flags.Changed("color") {
				u.Color = &color
			}
			if u == (domain.ProjectUpdate{}) {
				return fmt.Errorf("nothing to change, see: tempo projects edit --help")
			}
			p, err = ws.Projects.Update(ctx, p.ID, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&color, "color", "c", "", "new color as #RRGGBB")
	return cmd
}

func (c *cli) projectsArchiveCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "archive PROJECT",
		Short: "Archive a project, or restore it with --undo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			p, err := findProject(ws, args[0])
			if err != nil {
				return err
			}
			p, err = ws.Projects.Archive(ctx, p.ID, !undo)
			if err != nil {
				return err
			}
			verb := "Archived"
			if undo {
				verb = "Restored"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s project %s\n", verb, p.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "restore an archived project")
	return cmd
}

func (c *cli) projectsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm PROJECT",
		Aliases: []string{"delete"},
		Short:   "Delete a project; its entries keep their time",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, _, err := c.session(ctx)
			if err != nil {
				return err
			}
			p, err := findProject(ws, args[0])
			if err != nil {
				return err
			}
			if err := ws.Projects.Delete(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", p.Name)
			return nil
		},
	}
}
