package domain

import (
	"fmt"
	"time"
)

// RuleTrigger is the sealed union of the two rule shapes: stage-triggered
// and date-offset. Concrete types are StageTrigger and DateOffsetTrigger.
type RuleTrigger interface {
	Kind() TriggerKind
}

// StageTrigger fires when a project arrives at (stage_entry) or leaves
// (stage_exit) a specific stage.
type StageTrigger struct {
	StageID string
	On      TriggerKind // TriggerStageEntry or TriggerStageExit
}

func (t StageTrigger) Kind() TriggerKind { return t.On }

// DateOffsetTrigger fires a fixed number of days before, on, or after one
// of the project's dates. OffsetDays is forced to zero for OffsetOn.
type DateOffsetTrigger struct {
	Reference  DateReference
	OffsetType OffsetType
	OffsetDays int
}

func (t DateOffsetTrigger) Kind() TriggerKind { return TriggerDateOffset }

// ScheduledFor resolves the trigger against a concrete reference date.
func (t DateOffsetTrigger) ScheduledFor(reference time.Time) time.Time {
	switch t.OffsetType {
	case OffsetBefore:
		return reference.AddDate(0, 0, -t.OffsetDays)
	case OffsetAfter:
		return reference.AddDate(0, 0, t.OffsetDays)
	default:
		return reference
	}
}

// NotificationRule is one configured rule on a project type.
type NotificationRule struct {
	ID                 string
	ProjectTypeID      string
	Category           Category
	Channel            Channel
	NotificationTypeID string
	TemplateID         string
	HasClientTask      bool
	IsActive           bool
	Trigger            RuleTrigger
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks rule shape invariants before storage.
func (r *NotificationRule) Validate() error {
	if r.ProjectTypeID == "" {
		return fmt.Errorf("rule must belong to a project type")
	}
	if !ValidChannels[string(r.Channel)] {
		return fmt.Errorf("unknown channel %q", r.Channel)
	}
	switch t := r.Trigger.(type) {
	case StageTrigger:
		if t.StageID == "" {
			return fmt.Errorf("stage trigger requires a stage")
		}
		if t.On != TriggerStageEntry && t.On != TriggerStageExit {
			return fmt.Errorf("stage trigger must fire on entry or exit, got %q", t.On)
		}
	case DateOffsetTrigger:
		if t.Reference != ReferenceStartDate && t.Reference != ReferenceDueDate {
			return fmt.Errorf("unknown date reference %q", t.Reference)
		}
		if t.OffsetDays < 0 {
			return fmt.Errorf("offset days must be non-negative, got %d", t.OffsetDays)
		}
		if t.OffsetType == OffsetOn && t.OffsetDays != 0 {
			return fmt.Errorf("offset days must be zero when offset type is %q", OffsetOn)
		}
	case nil:
		return fmt.Errorf("rule has no trigger")
	default:
		return fmt.Errorf("unknown trigger type %T", t)
	}
	return nil
}
