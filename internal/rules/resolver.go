// Package rules materializes notification rules into concrete scheduled
// occurrences. It is pure: recipient lookup and persistence are the
// caller's concern.
package rules

import (
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
)

// Occurrence is one (rule, recipient, time) tuple ready to be persisted as
// a ScheduledNotification.
type Occurrence struct {
	Rule         domain.NotificationRule
	ProjectID    string
	RecipientID  string
	ScheduledFor time.Time
}

// ResolveDateRules evaluates every active date-offset rule against the
// project's concrete dates. Rules anchored to a date the project does not
// have produce nothing. recipientIDs fan out one occurrence per recipient;
// an empty slice yields one occurrence with no recipient.
func ResolveDateRules(ruleSet []domain.NotificationRule, project *domain.Project, recipientIDs []string) []Occurrence {
	var out []Occurrence
	for _, rule := range ruleSet {
		if !rule.IsActive {
			continue
		}
		trigger, ok := rule.Trigger.(domain.DateOffsetTrigger)
		if !ok {
			continue
		}
		reference := project.ReferenceDate(trigger.Reference)
		if reference == nil {
			continue
		}
		at := trigger.ScheduledFor(*reference)
		out = append(out, fanOut(rule, project.ID, at, recipientIDs)...)
	}
	return out
}

// ResolveStageRules evaluates stage-triggered rules for one transition:
// entry rules matching the destination stage and exit rules matching the
// origin stage. Occurrences are scheduled at the transition time.
func ResolveStageRules(ruleSet []domain.NotificationRule, fromStageID *string, toStageID string, at time.Time, projectID string, recipientIDs []string) []Occurrence {
	var out []Occurrence
	for _, rule := range ruleSet {
		if !rule.IsActive {
			continue
		}
		trigger, ok := rule.Trigger.(domain.StageTrigger)
		if !ok {
			continue
		}
		switch trigger.On {
		case domain.TriggerStageEntry:
			if trigger.StageID != toStageID {
				continue
			}
		case domain.TriggerStageExit:
			if fromStageID == nil || trigger.StageID != *fromStageID {
				continue
			}
		default:
			continue
		}
		out = append(out, fanOut(rule, projectID, at, recipientIDs)...)
	}
	return out
}

func fanOut(rule domain.NotificationRule, projectID string, at time.Time, recipientIDs []string) []Occurrence {
	if len(recipientIDs) == 0 {
		return []Occurrence{{Rule: rule, ProjectID: projectID, ScheduledFor: at}}
	}
	out := make([]Occurrence, 0, len(recipientIDs))
	for _, rid := range recipientIDs {
		out = append(out, Occurrence{Rule: rule, ProjectID: projectID, RecipientID: rid, ScheduledFor: at})
	}
	return out
}
