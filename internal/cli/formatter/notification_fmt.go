package formatter

import (
	"fmt"
	"strings"

	"github.com/dkarlsen/stagewatch/internal/domain"
)

// FormatNotificationList renders scheduled notifications as a table.
func FormatNotificationList(list []*domain.ScheduledNotification) string {
	if len(list) == 0 {
		return Dim("No notifications.")
	}

	headers := []string{"ID", "STATUS", "CHANNEL", "SCHEDULED FOR", "TRIGGER", "RECIPIENT", "DETAIL"}
	var rows [][]string
	for _, n := range list {
		detail := ""
		switch {
		case n.Status == domain.StatusFailed && n.FailureCode != "":
			detail = StyleRed.Render(n.FailureCode)
		case n.Status == domain.StatusSent && n.SentAt != nil:
			detail = Dim("sent " + n.SentAt.Local().Format("2006-01-02 15:04"))
		}
		recipient := n.RecipientID
		if recipient == "" {
			recipient = Dim("—")
		}
		rows = append(rows, []string{
			Dim(ShortID(n.ID)),
			StatusBadge(n.Status),
			string(n.Channel),
			n.ScheduledFor.Local().Format("2006-01-02 15:04"),
			triggerLabel(n),
			recipient,
			detail,
		})
	}
	return RenderTable(headers, rows)
}

// FormatNotificationDetail renders one notification in full.
func FormatNotificationDetail(n *domain.ScheduledNotification) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(ShortID(n.ID)), StatusBadge(n.Status)))
	b.WriteString(fmt.Sprintf("  channel       %s\n", n.Channel))
	b.WriteString(fmt.Sprintf("  trigger       %s\n", triggerLabel(n)))
	b.WriteString(fmt.Sprintf("  scheduled for %s\n", n.ScheduledFor.Local().Format("2006-01-02 15:04")))
	if n.RecipientID != "" {
		b.WriteString(fmt.Sprintf("  recipient     %s\n", n.RecipientID))
	}
	if n.SentAt != nil {
		b.WriteString(fmt.Sprintf("  sent at       %s\n", n.SentAt.Local().Format("2006-01-02 15:04")))
	}
	if n.FailureCode != "" {
		b.WriteString(fmt.Sprintf("  failure       %s %s\n",
			StyleRed.Render(n.FailureCode), Dim(n.FailureReason)))
	}
	return b.String()
}

func triggerLabel(n *domain.ScheduledNotification) string {
	switch n.TriggerKind {
	case domain.TriggerDateOffset:
		if n.DateReference != nil && n.OffsetType != nil && n.OffsetDays != nil {
			if *n.OffsetType == domain.OffsetOn {
				return fmt.Sprintf("on %s", *n.DateReference)
			}
			return fmt.Sprintf("%dd %s %s", *n.OffsetDays, *n.OffsetType, *n.DateReference)
		}
		return "date offset"
	case domain.TriggerStageEntry:
		return "stage entry"
	case domain.TriggerStageExit:
		return "stage exit"
	default:
		return string(n.TriggerKind)
	}
}
