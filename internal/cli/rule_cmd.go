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

func newRuleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage notification rules",
	}
	cmd.AddCommand(
		newRuleAddStageCmd(app),
		newRuleAddDateCmd(app),
		newRuleListCmd(app),
		newRuleEnableCmd(app),
		newRuleDisableCmd(app),
	)
	return cmd
}

func newRuleAddStageCmd(app *App) *cobra.Command {
	var typeRef, stageRef, on, channel, category string
	var clientTask bool

	cmd := &cobra.Command{
		Use:   "add-stage",
		Short: "Add a rule that fires on a stage transition",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}
			stage, err := resolveStage(ctx, app, pt.ID, stageRef)
			if err != nil {
				return err
			}

			var kind domain.TriggerKind
			switch on {
			case "entry":
				kind = domain.TriggerStageEntry
			case "exit":
				kind = domain.TriggerStageExit
			default:
				return fmt.Errorf("invalid --on %q, expected entry or exit", on)
			}

			rule := newRule(pt.ID, channel, category, clientTask)
			rule.Trigger = domain.StageTrigger{StageID: stage.ID, On: kind}

			if err := app.Rules.Create(ctx, rule); err != nil {
				return err
			}
			fmt.Printf("Added %s rule on %s of %s [%s]\n", rule.Channel, on, stage.Name, formatter.ShortID(rule.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	cmd.Flags().StringVar(&stageRef, "stage", "", "Stage (ID or name)")
	cmd.Flags().StringVar(&on, "on", "entry", "Fire on stage entry or exit")
	addRuleShapeFlags(cmd, &channel, &category, &clientTask)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func newRuleAddDateCmd(app *App) *cobra.Command {
	var typeRef, ref, offsetType, channel, category string
	var days int
	var clientTask bool

	cmd := &cobra.Command{
		Use:   "add-date",
		Short: "Add a rule that fires relative to a project date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}

			rule := newRule(pt.ID, channel, category, clientTask)
			rule.Trigger = domain.DateOffsetTrigger{
				Reference:  domain.DateReference(ref),
				OffsetType: domain.OffsetType(offsetType),
				OffsetDays: days,
			}

			if err := app.Rules.Create(ctx, rule); err != nil {
				return err
			}
			fmt.Printf("Added %s rule %dd %s %s [%s]\n", rule.Channel, days, offsetType, ref, formatter.ShortID(rule.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	cmd.Flags().StringVar(&ref, "ref", "due_date", "Reference date (start_date|due_date)")
	cmd.Flags().StringVar(&offsetType, "offset", "before", "Offset direction (before|on|after)")
	cmd.Flags().IntVar(&days, "days", 0, "Offset in days")
	addRuleShapeFlags(cmd, &channel, &category, &clientTask)
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newRule(projectTypeID, channel, category string, clientTask bool) *domain.NotificationRule {
	now := time.Now().UTC()
	return &domain.NotificationRule{
		ID:            uuid.New().String(),
		ProjectTypeID: projectTypeID,
		Channel:       domain.Channel(channel),
		Category:      domain.Category(category),
		HasClientTask: clientTask,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func addRuleShapeFlags(cmd *cobra.Command, channel, category *string, clientTask *bool) {
	cmd.Flags().StringVar(channel, "channel", "email", "Delivery channel (email|sms|push)")
	cmd.Flags().StringVar(category, "category", string(domain.CategoryProjectNotification),
		"Rule category (project_notification|client_request_reminder)")
	cmd.Flags().BoolVar(clientTask, "task", false, "Also create a client task on delivery")
}

func newRuleListCmd(app *App) *cobra.Command {
	var typeRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules of a project type",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, typeRef)
			if err != nil {
				return err
			}
			ruleSet, err := app.Rules.ListByType(ctx, pt.ID)
			if err != nil {
				return err
			}
			if len(ruleSet) == 0 {
				fmt.Println("No rules configured.")
				return nil
			}

			var rows [][]string
			for _, r := range ruleSet {
				trigger := ""
				switch t := r.Trigger.(type) {
				case domain.StageTrigger:
					stageName := formatter.ShortID(t.StageID)
					if stage, err := app.Stages.GetByID(ctx, t.StageID); err == nil {
						stageName = stage.Name
					}
					verb := "entry of"
					if t.On == domain.TriggerStageExit {
						verb = "exit of"
					}
					trigger = fmt.Sprintf("%s %s", verb, stageName)
				case domain.DateOffsetTrigger:
					if t.OffsetType == domain.OffsetOn {
						trigger = fmt.Sprintf("on %s", t.Reference)
					} else {
						trigger = fmt.Sprintf("%dd %s %s", t.OffsetDays, t.OffsetType, t.Reference)
					}
				}
				active := formatter.StyleGreen.Render("active")
				if !r.IsActive {
					active = formatter.Dim("disabled")
				}
				task := ""
				if r.HasClientTask {
					task = "task"
				}
				rows = append(rows, []string{
					formatter.ShortID(r.ID),
					string(r.Channel),
					trigger,
					active,
					task,
				})
			}
			fmt.Printf("%s\n", formatter.RenderTable(
				[]string{"ID", "CHANNEL", "TRIGGER", "STATE", ""}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeRef, "type", "", "Project type (ID or name)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newRuleEnableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enable RULE_ID",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Rules.SetActive(context.Background(), args[0], true); err != nil {
				return err
			}
			fmt.Printf("Enabled rule %s\n", formatter.ShortID(args[0]))
			return nil
		},
	}
}

func newRuleDisableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable RULE_ID",
		Short: "Disable a rule without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Rules.SetActive(context.Background(), args[0], false); err != nil {
				return err
			}
			fmt.Printf("Disabled rule %s\n", formatter.ShortID(args[0]))
			return nil
		},
	}
}
