package cli

import (
	"context"
	"fmt"

	"github.com/dkarlsen/stagewatch/internal/cli/formatter"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/spf13/cobra"
)

func newStageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Manage workflow stages",
	}
	cmd.AddCommand(
		newStageAddCmd(app),
		newStageListCmd(app),
		newStageUpdateCmd(app),
		newStageRemoveCmd(app),
	)
	return cmd
}

func newStageAddCmd(app *App) *cobra.Command {
	var typeRef, name, color, role string
	var order int
	var maxInstance, maxTotal float64
	var final bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a stage to a project type",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}

			stage := &domain.Stage{
				ProjectTypeID: pt.ID,
				Name:          name,
				Order:         order,
				Color:         color,
				AssignedRole:  role,
				IsFinal:       final,
			}
			if cmd.Flags().Changed("max-instance-hours") {
				stage.MaxInstanceTimeHours = &maxInstance
			}
			if cmd.Flags().Changed("max-total-hours") {
				stage.MaxTotalTimeHours = &maxTotal
			}

			if err := app.Stages.Create(ctx, stage); err != nil {
				return err
			}
			fmt.Printf("Added stage %s at position %d [%s]\n", stage.Name, stage.Order, formatter.ShortID(stage.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	cmd.Flags().StringVar(&name, "name", "", "Stage name")
	cmd.Flags().IntVar(&order, "order", 0, "Sort position within the workflow")
	cmd.Flags().StringVar(&color, "color", "", "Display color (hex)")
	cmd.Flags().StringVar(&role, "role", "", "Role responsible for projects in this stage")
	cmd.Flags().Float64Var(&maxInstance, "max-instance-hours", 0, "Business-hour limit per visit")
	cmd.Flags().Float64Var(&maxTotal, "max-total-hours", 0, "Business-hour limit across all visits")
	cmd.Flags().BoolVar(&final, "final", false, "Mark as a terminal stage")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newStageListCmd(app *App) *cobra.Command {
	var typeRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stages of a project type",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}
			stages, err := app.Stages.ListByType(ctx, pt.ID)
			if err != nil {
				return err
			}
			if len(stages) == 0 {
				fmt.Println("No stages defined.")
				return nil
			}

			var rows [][]string
			for _, s := range stages {
				limits := formatter.Dim("—")
				switch {
				case s.MaxInstanceTimeHours != nil && s.MaxTotalTimeHours != nil:
					limits = fmt.Sprintf("%.1fh/visit, %.1fh total", *s.MaxInstanceTimeHours, *s.MaxTotalTimeHours)
				case s.MaxInstanceTimeHours != nil:
					limits = fmt.Sprintf("%.1fh/visit", *s.MaxInstanceTimeHours)
				case s.MaxTotalTimeHours != nil:
					limits = fmt.Sprintf("%.1fh total", *s.MaxTotalTimeHours)
				}
				role := s.AssignedRole
				if role == "" {
					role = formatter.Dim("—")
				}
				finalMark := ""
				if s.IsFinal {
					finalMark = formatter.StyleGreen.Render("final")
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", s.Order),
					formatter.ShortID(s.ID),
					formatter.Bold(s.Name),
					role,
					limits,
					finalMark,
				})
			}
			fmt.Printf("%s\n", formatter.RenderTable(
				[]string{"#", "ID", "NAME", "ROLE", "TIME LIMITS", ""}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newStageUpdateCmd(app *App) *cobra.Command {
	var typeRef, name, color, role string
	var maxInstance, maxTotal float64

	cmd := &cobra.Command{
		Use:   "update STAGE",
		Short: "Update a stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}
			stage, err := resolveStage(ctx, app, pt.ID, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				stage.Name = name
			}
			if cmd.Flags().Changed("color") {
				stage.Color = color
			}
			if cmd.Flags().Changed("role") {
				stage.AssignedRole = role
			}
			if cmd.Flags().Changed("max-instance-hours") {
				stage.MaxInstanceTimeHours = &maxInstance
			}
			if cmd.Flags().Changed("max-total-hours") {
				stage.MaxTotalTimeHours = &maxTotal
			}

			if err := app.Stages.Update(ctx, stage); err != nil {
				return err
			}
			fmt.Printf("Updated stage %s\n", stage.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	cmd.Flags().StringVar(&name, "name", "", "Stage name")
	cmd.Flags().StringVar(&color, "color", "", "Display color (hex)")
	cmd.Flags().StringVar(&role, "role", "", "Role responsible for projects in this stage")
	cmd.Flags().Float64Var(&maxInstance, "max-instance-hours", 0, "Business-hour limit per visit")
	cmd.Flags().Float64Var(&maxTotal, "max-total-hours", 0, "Business-hour limit across all visits")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newStageRemoveCmd(app *App) *cobra.Command {
	var typeRef string

	cmd := &cobra.Command{
		Use:   "remove STAGE",
		Short: "Remove an unused stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}
			stage, err := resolveStage(ctx, app, pt.ID, args[0])
			if err != nil {
				return err
			}
			if err := app.Stages.Delete(ctx, stage.ID); err != nil {
				return err
			}
			fmt.Printf("Removed stage %s\n", stage.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
