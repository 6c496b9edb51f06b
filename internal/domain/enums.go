package domain

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// ValidChannels is the canonical set of accepted channel strings.
var ValidChannels = map[string]bool{
	"email": true, "sms": true, "push": true,
}

type Category string

const (
	CategoryProjectNotification   Category = "project_notification"
	CategoryClientRequestReminder Category = "client_request_reminder"
)

type TriggerKind string

const (
	TriggerStageEntry TriggerKind = "stage_entry"
	TriggerStageExit  TriggerKind = "stage_exit"
	TriggerDateOffset TriggerKind = "date_offset"
)

type DateReference string

const (
	ReferenceStartDate DateReference = "start_date"
	ReferenceDueDate   DateReference = "due_date"
)

type OffsetType string

const (
	OffsetBefore OffsetType = "before"
	OffsetOn     OffsetType = "on"
	OffsetAfter  OffsetType = "after"
)

type NotificationStatus string

const (
	StatusScheduled NotificationStatus = "scheduled"
	StatusSent      NotificationStatus = "sent"
	StatusFailed    NotificationStatus = "failed"
	StatusCancelled NotificationStatus = "cancelled"
)

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// CanTransition reports whether a status change is permitted by the
// notification state machine. Sent is terminal; cancelled and failed rows
// can only return to scheduled.
func (s NotificationStatus) CanTransition(to NotificationStatus) bool {
	switch s {
	case StatusScheduled:
		return to == StatusSent || to == StatusFailed || to == StatusCancelled || to == StatusScheduled
	case StatusCancelled:
		return to == StatusScheduled
	case StatusFailed:
		return to == StatusScheduled
	default:
		return false
	}
}
