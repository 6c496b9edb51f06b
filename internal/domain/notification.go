package domain

import "time"

// ScheduledNotification is one materialized occurrence of a rule for one
// recipient. The tuple (ProjectID, RuleID, ScheduledFor) is the idempotency
// key: regenerating must never duplicate a row for the same tuple.
type ScheduledNotification struct {
	ID                 string
	ProjectID          string
	RuleID             string
	Category           Category
	Channel            Channel
	TriggerKind        TriggerKind
	DateReference      *DateReference
	OffsetType         *OffsetType
	OffsetDays         *int
	ScheduledFor       time.Time
	Status             NotificationStatus
	SentAt             *time.Time
	FailureCode        string
	FailureReason      string
	RecipientID        string
	NotificationTypeID string
	HasClientTask      bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NotificationFilter narrows ListForProject results. A nil Status means the
// active view: only scheduled rows. AllStatuses lifts that default and
// returns rows in every state.
type NotificationFilter struct {
	Category    *Category
	Channel     *Channel
	RecipientID string
	Status      *NotificationStatus
	AllStatuses bool
	DateFrom    *time.Time
	DateTo      *time.Time
}
