package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/cli/formatter"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/spf13/cobra"
)

func newNotificationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Inspect and manage scheduled notifications",
	}
	cmd.AddCommand(
		newNotificationsListCmd(app),
		newNotificationsCancelCmd(app),
		newNotificationsReactivateCmd(app),
		newNotificationsRescheduleCmd(app),
	)
	return cmd
}

func newNotificationsListCmd(app *App) *cobra.Command {
	var status, channel, recipient string
	var all bool

	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List notifications for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			// The default view shows only scheduled rows; --all or an
			// explicit --status widens it.
			var filter domain.NotificationFilter
			switch {
			case status != "":
				s := domain.NotificationStatus(status)
				filter.Status = &s
			case all:
				filter.AllStatuses = true
			default:
				s := domain.StatusScheduled
				filter.Status = &s
			}
			if channel != "" {
				c := domain.Channel(channel)
				filter.Channel = &c
			}
			filter.RecipientID = recipient

			list, err := app.Scheduler.ListForProject(ctx, p.ID, filter)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", formatter.FormatNotificationList(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (scheduled|sent|failed|cancelled)")
	cmd.Flags().StringVar(&channel, "channel", "", "Filter by channel (email|sms|push)")
	cmd.Flags().StringVar(&recipient, "recipient", "", "Filter by recipient ID")
	cmd.Flags().BoolVar(&all, "all", false, "Include sent, failed and cancelled rows")
	return cmd
}

func newNotificationsCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID...",
		Short: "Cancel scheduled notifications",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Scheduler.BulkCancel(context.Background(), args)
			if err != nil {
				return err
			}
			skipped := len(args) - result.CancelledCount
			if skipped > 0 {
				fmt.Printf("Cancelled %d notification(s), skipped %d not in a cancellable state\n",
					result.CancelledCount, skipped)
				return nil
			}
			fmt.Printf("Cancelled %d notification(s)\n", result.CancelledCount)
			return nil
		},
	}
}

func newNotificationsReactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate ID",
		Short: "Return a cancelled notification to the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Scheduler.Reactivate(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", formatter.FormatNotificationDetail(n))
			return nil
		},
	}
}

func newNotificationsRescheduleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule ID",
		Short: "Queue a notification for immediate delivery",
		Long: "Queue a scheduled or failed notification for immediate delivery.\n" +
			"A cancelled notification must be reactivated first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Scheduler.RescheduleImmediate(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", formatter.FormatNotificationDetail(n))
			return nil
		},
	}
}

func newGenerateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate TYPE",
		Short: "Materialize date-rule notifications for active projects of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pt, err := resolveProjectType(ctx, app, args[0])
			if err != nil {
				return err
			}
			result, err := app.Scheduler.Generate(ctx, pt.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Generated %d notification(s) for %s\n", result.CreatedCount, pt.Name)
			return nil
		},
	}
}

func newProcessDueCmd(app *App) *cobra.Command {
	var asOfStr string

	cmd := &cobra.Command{
		Use:   "process-due",
		Short: "Deliver all notifications that are due",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf := time.Now().UTC()
			if asOfStr != "" {
				parsed, err := time.Parse(time.RFC3339, asOfStr)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q: %w", asOfStr, err)
				}
				asOf = parsed.UTC()
			}

			result, err := app.Scheduler.ProcessDue(context.Background(), asOf)
			if err != nil {
				return err
			}
			fmt.Printf("Sent %d, failed %d\n", result.SentCount, result.FailedCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfStr, "as-of", "", "Process rows due at or before this RFC3339 timestamp")
	return cmd
}
