package timecalc

import "fmt"

// Format renders a business-hour total for display.
//
// Under one hour the exact value is hidden ("< 1 business hour"). Up to a
// day it is shown to one decimal. From 24 hours up it is expressed as whole
// business days plus remainder hours, a business day being the calendar's
// configured daily window rather than literal 24h.
func Format(hours float64, cal WorkCalendar) string {
	if hours < 1 {
		return "< 1 business hour"
	}
	if hours < 24 {
		return fmt.Sprintf("%.1f business hours", hours)
	}
	days, remainder := BusinessDays(hours, cal)
	rem := fmt.Sprintf("%.1f", remainder)
	dayWord := "business days"
	if days == 1 {
		dayWord = "business day"
	}
	if rem == "0.0" {
		return fmt.Sprintf("%d %s", days, dayWord)
	}
	return fmt.Sprintf("%d %s %s hours", days, dayWord, rem)
}
