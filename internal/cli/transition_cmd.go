package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkarlsen/stagewatch/internal/cli/formatter"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/service"
	"github.com/spf13/cobra"
)

func newTransitionCmd(app *App) *cobra.Command {
	var reason, by string
	var fields []string

	cmd := &cobra.Command{
		Use:   "transition PROJECT STAGE",
		Short: "Move a project to a stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			stage, err := resolveStage(ctx, app, p.ProjectTypeID, args[1])
			if err != nil {
				return err
			}

			var responses []domain.FieldResponse
			for _, f := range fields {
				parts := strings.SplitN(f, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid --field format %q, expected label=value", f)
				}
				responses = append(responses, domain.FieldResponse{
					FieldID: parts[0],
					Label:   parts[0],
					Value:   parts[1],
				})
			}

			entry, err := app.Chronology.Append(ctx, service.AppendRequest{
				ProjectID:      p.ID,
				ToStageID:      stage.ID,
				Reason:         reason,
				ChangedBy:      by,
				FieldResponses: responses,
			})
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatTransitionResult(entry, stage.Name))

			if app.Assignees != nil {
				userID, err := app.Assignees.ResolveForStage(ctx, p.ID, stage.ID)
				if err != nil {
					return err
				}
				if userID != "" {
					fmt.Printf("Responsible: %s\n", userID)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the project moved")
	cmd.Flags().StringVar(&by, "by", "", "Who moved it")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Form response (label=value)")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history PROJECT",
		Short: "Show a project's stage chronology with time in each stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			entries, err := app.Chronology.History(ctx, p.ID)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			stageNames := make(map[string]string)
			stageName := func(id string) string {
				if name, ok := stageNames[id]; ok {
					return name
				}
				name := formatter.ShortID(id)
				if stage, err := app.Stages.GetByID(ctx, id); err == nil {
					name = stage.Name
				}
				stageNames[id] = name
				return name
			}

			rows := make([]formatter.HistoryRow, 0, len(entries))
			for i, entry := range entries {
				dur, err := app.Chronology.TimeInStage(entries, i, now, app.Calendar)
				if err != nil {
					return err
				}
				row := formatter.HistoryRow{
					Entry:     entry,
					StageName: stageName(entry.ToStageID),
					Duration:  dur,
					Live:      i == 0,
				}
				if entry.FromStageID != nil {
					row.FromName = stageName(*entry.FromStageID)
				}
				rows = append(rows, row)
			}

			fmt.Printf("%s\n", formatter.FormatHistory(p.Name, rows, app.Calendar))
			return nil
		},
	}
}

func newSLACmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sla PROJECT",
		Short: "Show per-stage business time against configured limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			report, err := app.Chronology.StageSLA(ctx, p.ID, time.Now().UTC(), app.Calendar)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", formatter.FormatStageSLA(p.Name, report, app.Calendar))
			return nil
		},
	}
}
