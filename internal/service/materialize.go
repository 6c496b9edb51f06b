package service

import (
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/rules"
	"github.com/google/uuid"
)

// notificationFromOccurrence turns a resolved rule occurrence into a
// scheduled notification row ready for an idempotent insert.
func notificationFromOccurrence(occ rules.Occurrence, now time.Time) *domain.ScheduledNotification {
	n := &domain.ScheduledNotification{
		ID:                 uuid.New().String(),
		ProjectID:          occ.ProjectID,
		RuleID:             occ.Rule.ID,
		Category:           occ.Rule.Category,
		Channel:            occ.Rule.Channel,
		TriggerKind:        occ.Rule.Trigger.Kind(),
		ScheduledFor:       occ.ScheduledFor.UTC(),
		Status:             domain.StatusScheduled,
		RecipientID:        occ.RecipientID,
		NotificationTypeID: occ.Rule.NotificationTypeID,
		HasClientTask:      occ.Rule.HasClientTask,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if trigger, ok := occ.Rule.Trigger.(domain.DateOffsetTrigger); ok {
		ref := trigger.Reference
		offsetType := trigger.OffsetType
		days := trigger.OffsetDays
		n.DateReference = &ref
		n.OffsetType = &offsetType
		n.OffsetDays = &days
	}
	return n
}
