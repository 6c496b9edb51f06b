package timecalc

import (
	"fmt"
	"time"
)

// ClockTime is a time of day within a working day, minute resolution.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) minutes() int { return c.Hour*60 + c.Minute }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// WorkCalendar describes which hours count as business time. It is a plain
// value passed into every calculation so results stay deterministic; there
// is no process-wide calendar.
type WorkCalendar struct {
	// Weekdays that count as working days.
	Weekdays map[time.Weekday]bool
	// Daily work window, DayStart inclusive to DayEnd exclusive.
	DayStart ClockTime
	DayEnd   ClockTime
	// Holidays contribute zero business time. Keys are dates formatted
	// as 2006-01-02 in the calendar's frame of reference.
	Holidays map[string]bool
}

// DefaultCalendar is Mon-Fri 09:00-17:30 with no holidays.
func DefaultCalendar() WorkCalendar {
	return WorkCalendar{
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		DayStart: ClockTime{Hour: 9},
		DayEnd:   ClockTime{Hour: 17, Minute: 30},
	}
}

// DailyHours returns the length of one business day in hours.
func (c WorkCalendar) DailyHours() float64 {
	return float64(c.DayEnd.minutes()-c.DayStart.minutes()) / 60.0
}

// IsWorkingDay reports whether the given date is a working day: a working
// weekday that is not a holiday.
func (c WorkCalendar) IsWorkingDay(t time.Time) bool {
	if !c.Weekdays[t.Weekday()] {
		return false
	}
	if c.Holidays[t.Format("2006-01-02")] {
		return false
	}
	return true
}

// WithHoliday returns a copy of the calendar with the given date marked as
// a holiday.
func (c WorkCalendar) WithHoliday(date time.Time) WorkCalendar {
	holidays := make(map[string]bool, len(c.Holidays)+1)
	for k, v := range c.Holidays {
		holidays[k] = v
	}
	holidays[date.Format("2006-01-02")] = true
	c.Holidays = holidays
	return c
}
