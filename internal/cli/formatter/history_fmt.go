package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
)

// HistoryRow is one chronology entry prepared for display: the entry plus
// resolved stage names and its computed occupancy.
type HistoryRow struct {
	Entry     *domain.ChronologyEntry
	StageName string
	FromName  string
	Duration  domain.StageDuration
	Live      bool
}

// FormatHistory renders a project's stage chronology, newest first. The
// newest row is marked as still running and its duration keeps growing.
func FormatHistory(projectName string, rows []HistoryRow, cal timecalc.WorkCalendar) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("History — %s", projectName)))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(Dim("No stage transitions recorded."))
		return b.String()
	}

	headers := []string{"WHEN", "FROM", "TO", "TIME IN STAGE", "BY"}
	var table [][]string
	for _, row := range rows {
		when := Dim("—")
		if row.Entry.Timestamp != nil {
			when = row.Entry.Timestamp.Local().Format("2006-01-02 15:04")
		}
		from := Dim("(created)")
		if row.FromName != "" {
			from = row.FromName
		}
		dur := timecalc.Format(row.Duration.BusinessHours, cal)
		if row.Live {
			dur = StyleYellow.Render(dur + " (ongoing)")
		}
		by := Dim("—")
		if row.Entry.ChangedBy != "" {
			by = row.Entry.ChangedBy
		}
		table = append(table, []string{when, from, Bold(row.StageName), dur, by})
	}
	b.WriteString(RenderTable(headers, table))
	return b.String()
}

// FormatTransitionResult renders the confirmation after recording a
// transition.
func FormatTransitionResult(entry *domain.ChronologyEntry, toStageName string) string {
	at := time.Now().Local().Format("15:04")
	if entry.Timestamp != nil {
		at = entry.Timestamp.Local().Format("15:04")
	}
	return fmt.Sprintf("Moved to %s at %s", Bold(toStageName), at)
}
