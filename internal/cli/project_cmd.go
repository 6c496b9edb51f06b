package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/cli/formatter"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTypeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage project types",
	}
	cmd.AddCommand(newTypeAddCmd(app), newTypeListCmd(app))
	return cmd
}

func newTypeAddCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project type",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			pt := &domain.ProjectType{
				ID:        uuid.New().String(),
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := app.ProjectTypes.Create(context.Background(), pt); err != nil {
				return err
			}
			fmt.Printf("Created project type %s [%s]\n", pt.Name, formatter.ShortID(pt.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project type name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTypeListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List project types",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := app.ProjectTypes.List(context.Background())
			if err != nil {
				return err
			}
			if len(types) == 0 {
				fmt.Println("No project types found.")
				return nil
			}
			var rows [][]string
			for _, pt := range types {
				rows = append(rows, []string{formatter.ShortID(pt.ID), pt.Name})
			}
			fmt.Printf("%s\n", formatter.RenderTable([]string{"ID", "NAME"}, rows))
			return nil
		},
	}
}

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectUpdateCmd(app),
		newProjectArchiveCmd(app),
	)
	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var typeRef, name, client, start, due string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			p := &domain.Project{
				ID:            uuid.New().String(),
				ProjectTypeID: pt.ID,
				Name:          name,
				ClientID:      client,
				Status:        domain.ProjectActive,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if start != "" {
				startDate, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, err)
				}
				p.StartDate = &startDate
			}
			if due != "" {
				dueDate, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid due date %q: %w", due, err)
				}
				p.DueDate = &dueDate
			}

			if err := app.Projects.Create(ctx, p); err != nil {
				return err
			}
			fmt.Printf("Created project %s [%s]\n", p.Name, formatter.ShortID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&client, "client", "", "Client ID used as default notification recipient")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	var typeRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active projects of a type",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}
			projects, err := app.Projects.ListActiveByType(ctx, pt.ID)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No active projects.")
				return nil
			}

			var rows [][]string
			for _, p := range projects {
				stageName := formatter.Dim("—")
				if stage, err := app.Chronology.CurrentStage(ctx, p.ID); err == nil {
					stageName = stage.Name
				}
				rows = append(rows, []string{
					formatter.ShortID(p.ID),
					p.Name,
					stageName,
					dateOrDash(p.StartDate),
					dateOrDash(p.DueDate),
				})
			}
			fmt.Printf("%s\n", formatter.RenderTable(
				[]string{"ID", "NAME", "STAGE", "START", "DUE"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var name, client, start, due string

	cmd := &cobra.Command{
		Use:   "update PROJECT",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if cmd.Flags().Changed("client") {
				p.ClientID = client
			}
			if cmd.Flags().Changed("start") {
				startDate, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, err)
				}
				p.StartDate = &startDate
			}
			if cmd.Flags().Changed("due") {
				dueDate, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid due date %q: %w", due, err)
				}
				p.DueDate = &dueDate
			}
			p.UpdatedAt = time.Now().UTC()

			if err := app.Projects.Update(ctx, p); err != nil {
				return err
			}
			fmt.Printf("Updated project %s\n", p.Name)
			if cmd.Flags().Changed("start") || cmd.Flags().Changed("due") {
				fmt.Println(formatter.Dim("Run `stagewatch generate` to materialize notifications for the new dates."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&client, "client", "", "Client ID")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func newProjectArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive PROJECT",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Archive(ctx, p.ID); err != nil {
				return err
			}
			fmt.Printf("Archived project %s\n", p.Name)
			return nil
		},
	}
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return formatter.Dim("—")
	}
	return t.Format("2006-01-02")
}
