package timecalc

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange indicates a business-time calculation where end precedes
// start.
var ErrInvalidRange = errors.New("end must not precede start")

// BusinessHours computes the elapsed business time between start and end
// under the given calendar, in fractional hours.
//
// The walk visits each calendar day in [start, end] and, on working days,
// adds the overlap of [start, end] with that day's work window. Weekends
// and holidays contribute zero. The result is additive: for a <= b <= c,
// BusinessHours(a,b) + BusinessHours(b,c) == BusinessHours(a,c).
func BusinessHours(start, end time.Time, cal WorkCalendar) (float64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("business hours from %s to %s: %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidRange)
	}
	if !end.After(start) {
		return 0, nil
	}

	// Normalize end into start's location so day boundaries agree.
	end = end.In(start.Location())

	total := 0.0
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(end) {
		if cal.IsWorkingDay(day) {
			winStart := day.Add(time.Duration(cal.DayStart.minutes()) * time.Minute)
			winEnd := day.Add(time.Duration(cal.DayEnd.minutes()) * time.Minute)

			lo := winStart
			if start.After(lo) {
				lo = start
			}
			hi := winEnd
			if end.Before(hi) {
				hi = end
			}
			if hi.After(lo) {
				total += hi.Sub(lo).Hours()
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return total, nil
}

// BusinessDays converts a business-hour total into whole business days plus
// remainder hours, where one business day is the calendar's daily window.
func BusinessDays(hours float64, cal WorkCalendar) (days int, remainder float64) {
	daily := cal.DailyHours()
	if daily <= 0 {
		return 0, hours
	}
	days = int(hours / daily)
	remainder = hours - float64(days)*daily
	return days, remainder
}
