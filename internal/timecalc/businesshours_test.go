package timecalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nineToFive() WorkCalendar {
	cal := DefaultCalendar()
	cal.DayEnd = ClockTime{Hour: 17}
	return cal
}

func TestBusinessHours_ZeroWhenEqual(t *testing.T) {
	at := time.Date(2024, 6, 5, 11, 30, 0, 0, time.UTC)
	got, err := BusinessHours(at, at, DefaultCalendar())
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestBusinessHours_EndBeforeStart(t *testing.T) {
	start := time.Date(2024, 6, 5, 11, 0, 0, 0, time.UTC)
	_, err := BusinessHours(start, start.Add(-time.Minute), DefaultCalendar())
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBusinessHours_WithinOneWorkingDay(t *testing.T) {
	// Wednesday 10:00 to 14:30.
	start := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 14, 30, 0, 0, time.UTC)
	got, err := BusinessHours(start, end, nineToFive())
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got, 1e-9)
}

func TestBusinessHours_ClipsToWorkWindow(t *testing.T) {
	// Starts before opening, ends after closing: full day only.
	start := time.Date(2024, 6, 5, 6, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 22, 0, 0, 0, time.UTC)
	got, err := BusinessHours(start, end, nineToFive())
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got, 1e-9)
}

func TestBusinessHours_WeekendIsZero(t *testing.T) {
	// Saturday 00:00 through Sunday 23:59.
	start := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC)
	got, err := BusinessHours(start, end, nineToFive())
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestBusinessHours_SpansWeekend(t *testing.T) {
	// Friday 16:00 to Monday 10:00 on a 09:00-17:00 calendar:
	// 1h Friday + 1h Monday.
	start := time.Date(2024, 6, 7, 16, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	got, err := BusinessHours(start, end, nineToFive())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)
}

func TestBusinessHours_HolidayContributesZero(t *testing.T) {
	cal := nineToFive().WithHoliday(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))

	// Tuesday 16:00 to Thursday 10:00 with Wednesday a holiday:
	// 1h Tuesday + 1h Thursday.
	start := time.Date(2024, 6, 4, 16, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC)
	got, err := BusinessHours(start, end, cal)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)
}

func TestBusinessHours_HalfHourWindowEnd(t *testing.T) {
	// Default calendar closes 17:30; full Wednesday is 8.5h.
	start := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC)
	got, err := BusinessHours(start, end, DefaultCalendar())
	require.NoError(t, err)
	assert.InDelta(t, 8.5, got, 1e-9)
}

func TestBusinessDays(t *testing.T) {
	cal := nineToFive() // 8h day

	days, rem := BusinessDays(20, cal)
	assert.Equal(t, 2, days)
	assert.InDelta(t, 4.0, rem, 1e-9)

	days, rem = BusinessDays(16, cal)
	assert.Equal(t, 2, days)
	assert.InDelta(t, 0.0, rem, 1e-9)
}

func TestFormat(t *testing.T) {
	cal := nineToFive()

	tests := []struct {
		name  string
		hours float64
		want  string
	}{
		{"under an hour", 0.4, "< 1 business hour"},
		{"just under an hour", 0.99, "< 1 business hour"},
		{"exact hours", 2.0, "2.0 business hours"},
		{"rounded to one decimal", 5.25, "5.2 business hours"},
		{"half rounds to even down", 2.25, "2.2 business hours"},
		{"half rounds to even up", 2.75, "2.8 business hours"},
		{"under a day threshold", 23.9, "23.9 business hours"},
		{"whole days", 24.0, "3 business days"},
		{"days with remainder", 28.5, "3 business days 4.5 hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.hours, cal))
		})
	}
}

func TestFormat_SingleDayWording(t *testing.T) {
	// A 20h daily window makes 24h land on one business day plus remainder.
	cal := WorkCalendar{
		Weekdays: map[time.Weekday]bool{time.Monday: true},
		DayStart: ClockTime{Hour: 0},
		DayEnd:   ClockTime{Hour: 20},
	}
	assert.Equal(t, "1 business day 4.0 hours", Format(24.0, cal))
}
