package rules

import (
	"testing"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dateRule(id string, ref domain.DateReference, offsetType domain.OffsetType, days int) domain.NotificationRule {
	return domain.NotificationRule{
		ID:            id,
		ProjectTypeID: "pt-1",
		Category:      domain.CategoryProjectNotification,
		Channel:       domain.ChannelEmail,
		IsActive:      true,
		Trigger: domain.DateOffsetTrigger{
			Reference:  ref,
			OffsetType: offsetType,
			OffsetDays: days,
		},
	}
}

func stageRule(id, stageID string, on domain.TriggerKind) domain.NotificationRule {
	return domain.NotificationRule{
		ID:            id,
		ProjectTypeID: "pt-1",
		Category:      domain.CategoryProjectNotification,
		Channel:       domain.ChannelSMS,
		IsActive:      true,
		Trigger:       domain.StageTrigger{StageID: stageID, On: on},
	}
}

func TestResolveDateRules_BeforeDueDate(t *testing.T) {
	due := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	project := &domain.Project{ID: "p-1", DueDate: &due}

	occ := ResolveDateRules(
		[]domain.NotificationRule{dateRule("r-1", domain.ReferenceDueDate, domain.OffsetBefore, 3)},
		project, []string{"rec-1"},
	)

	require.Len(t, occ, 1)
	assert.Equal(t, time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC), occ[0].ScheduledFor)
	assert.Equal(t, "rec-1", occ[0].RecipientID)
}

func TestResolveDateRules_OnAndAfter(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	project := &domain.Project{ID: "p-1", StartDate: &start}

	occ := ResolveDateRules([]domain.NotificationRule{
		dateRule("r-on", domain.ReferenceStartDate, domain.OffsetOn, 0),
		dateRule("r-after", domain.ReferenceStartDate, domain.OffsetAfter, 7),
	}, project, nil)

	require.Len(t, occ, 2)
	assert.Equal(t, start, occ[0].ScheduledFor)
	assert.Equal(t, start.AddDate(0, 0, 7), occ[1].ScheduledFor)
}

func TestResolveDateRules_MissingReferenceDate(t *testing.T) {
	project := &domain.Project{ID: "p-1"} // no dates set

	occ := ResolveDateRules(
		[]domain.NotificationRule{dateRule("r-1", domain.ReferenceDueDate, domain.OffsetBefore, 3)},
		project, nil,
	)
	assert.Empty(t, occ)
}

func TestResolveDateRules_InactiveSkipped(t *testing.T) {
	due := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	project := &domain.Project{ID: "p-1", DueDate: &due}

	rule := dateRule("r-1", domain.ReferenceDueDate, domain.OffsetOn, 0)
	rule.IsActive = false

	assert.Empty(t, ResolveDateRules([]domain.NotificationRule{rule}, project, nil))
}

func TestResolveDateRules_FansOutPerRecipient(t *testing.T) {
	due := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	project := &domain.Project{ID: "p-1", DueDate: &due}

	occ := ResolveDateRules(
		[]domain.NotificationRule{dateRule("r-1", domain.ReferenceDueDate, domain.OffsetOn, 0)},
		project, []string{"rec-1", "rec-2", "rec-3"},
	)
	require.Len(t, occ, 3)
	assert.Equal(t, "rec-2", occ[1].RecipientID)
}

func TestResolveStageRules_EntryOnArrival(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	from := "stage-review"

	occ := ResolveStageRules(
		[]domain.NotificationRule{stageRule("r-1", "stage-approved", domain.TriggerStageEntry)},
		&from, "stage-approved", at, "p-1", []string{"rec-1"},
	)

	require.Len(t, occ, 1)
	assert.Equal(t, at, occ[0].ScheduledFor)
	assert.Equal(t, "r-1", occ[0].Rule.ID)
}

func TestResolveStageRules_ExitOnDeparture(t *testing.T) {
	at := time.Now().UTC()
	from := "stage-review"

	occ := ResolveStageRules([]domain.NotificationRule{
		stageRule("r-exit", "stage-review", domain.TriggerStageExit),
		stageRule("r-wrong", "stage-other", domain.TriggerStageExit),
	}, &from, "stage-approved", at, "p-1", nil)

	require.Len(t, occ, 1)
	assert.Equal(t, "r-exit", occ[0].Rule.ID)
}

func TestResolveStageRules_FirstTransitionHasNoExit(t *testing.T) {
	at := time.Now().UTC()

	occ := ResolveStageRules([]domain.NotificationRule{
		stageRule("r-exit", "stage-new", domain.TriggerStageExit),
		stageRule("r-entry", "stage-new", domain.TriggerStageEntry),
	}, nil, "stage-new", at, "p-1", nil)

	require.Len(t, occ, 1)
	assert.Equal(t, "r-entry", occ[0].Rule.ID)
}

func TestResolveStageRules_DateRulesIgnored(t *testing.T) {
	at := time.Now().UTC()
	occ := ResolveStageRules(
		[]domain.NotificationRule{dateRule("r-date", domain.ReferenceDueDate, domain.OffsetOn, 0)},
		nil, "stage-new", at, "p-1", nil,
	)
	assert.Empty(t, occ)
}
