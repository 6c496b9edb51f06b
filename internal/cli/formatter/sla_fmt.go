package formatter

import (
	"fmt"
	"strings"

	"github.com/dkarlsen/stagewatch/internal/service"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
)

// FormatStageSLA renders the per-stage time report with breach markers.
func FormatStageSLA(projectName string, report []service.StageSLAStatus, cal timecalc.WorkCalendar) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Stage time — %s", projectName)))
	b.WriteString("\n\n")

	if len(report) == 0 {
		b.WriteString(Dim("No stage history yet."))
		return b.String()
	}

	headers := []string{"STAGE", "TOTAL", "LIMITS", "STATUS"}
	var rows [][]string
	for _, s := range report {
		var limits []string
		if s.MaxInstanceHours != nil {
			limits = append(limits, fmt.Sprintf("%.1fh/visit", *s.MaxInstanceHours))
		}
		if s.MaxTotalHours != nil {
			limits = append(limits, fmt.Sprintf("%.1fh total", *s.MaxTotalHours))
		}
		limitCol := Dim("—")
		if len(limits) > 0 {
			limitCol = strings.Join(limits, ", ")
		}

		status := StyleGreen.Render("● ok")
		switch {
		case s.TotalBreached:
			status = StyleRed.Render("● over total limit")
		case s.InstanceBreached:
			status = StyleYellow.Render("● over visit limit")
		}

		rows = append(rows, []string{
			Bold(s.StageName),
			timecalc.Format(s.BusinessHours, cal),
			limitCol,
			status,
		})
	}
	b.WriteString(RenderTable(headers, rows))
	return b.String()
}
