package formatter

import (
	"testing"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/service"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
	"github.com/stretchr/testify/assert"
)

func TestFormatNotificationList_Empty(t *testing.T) {
	out := FormatNotificationList(nil)
	assert.Contains(t, out, "No notifications")
}

func TestFormatNotificationList_ShowsFailureCode(t *testing.T) {
	ref := domain.ReferenceDueDate
	offType := domain.OffsetBefore
	days := 3
	list := []*domain.ScheduledNotification{
		{
			ID:            "12345678-aaaa-bbbb-cccc-1234567890ab",
			Channel:       domain.ChannelEmail,
			TriggerKind:   domain.TriggerDateOffset,
			DateReference: &ref,
			OffsetType:    &offType,
			OffsetDays:    &days,
			ScheduledFor:  time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
			Status:        domain.StatusFailed,
			FailureCode:   "no_email",
			RecipientID:   "client-1",
		},
	}

	out := FormatNotificationList(list)
	assert.Contains(t, out, "12345678")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "no_email")
	assert.Contains(t, out, "3d before due_date")
	assert.Contains(t, out, "client-1")
}

func TestFormatNotificationList_StageTriggerLabel(t *testing.T) {
	list := []*domain.ScheduledNotification{
		{
			ID:           "n1",
			Channel:      domain.ChannelSMS,
			TriggerKind:  domain.TriggerStageEntry,
			ScheduledFor: time.Now(),
			Status:       domain.StatusScheduled,
		},
	}
	out := FormatNotificationList(list)
	assert.Contains(t, out, "stage entry")
	assert.Contains(t, out, "scheduled")
}

func TestFormatHistory_MarksOngoingRow(t *testing.T) {
	ts := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	rows := []HistoryRow{
		{
			Entry:     &domain.ChronologyEntry{ToStageID: "s2", Timestamp: &ts},
			StageName: "Review",
			FromName:  "New",
			Duration:  domain.StageDuration{WallMinutes: 120, BusinessHours: 2.0},
			Live:      true,
		},
	}

	out := FormatHistory("Acme", rows, timecalc.DefaultCalendar())
	assert.Contains(t, out, "Review")
	assert.Contains(t, out, "ongoing")
	assert.Contains(t, out, "2.0 business hours")
}

func TestFormatHistory_FirstEntryShowsCreated(t *testing.T) {
	ts := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	rows := []HistoryRow{
		{
			Entry:     &domain.ChronologyEntry{ToStageID: "s1", Timestamp: &ts},
			StageName: "New",
		},
	}
	out := FormatHistory("Acme", rows, timecalc.DefaultCalendar())
	assert.Contains(t, out, "(created)")
}

func TestFormatStageSLA_BreachMarkers(t *testing.T) {
	maxVisit := 2.0
	report := []service.StageSLAStatus{
		{StageName: "Review", BusinessHours: 5.0, MaxInstanceHours: &maxVisit, InstanceBreached: true},
		{StageName: "Done", BusinessHours: 0.5},
	}

	out := FormatStageSLA("Acme", report, timecalc.DefaultCalendar())
	assert.Contains(t, out, "over visit limit")
	assert.Contains(t, out, "2.0h/visit")
	assert.Contains(t, out, "< 1 business hour")
	assert.Contains(t, out, "ok")
}
