package domain

import "time"

// ChronologyEntry is an immutable record of one stage transition.
// FromStageID is nil only for the first entry of a project (creation).
type ChronologyEntry struct {
	ID             string
	ProjectID      string
	FromStageID    *string
	ToStageID      string
	Reason         string
	ChangedBy      string
	Timestamp      *time.Time
	FieldResponses []FieldResponse
	CreatedAt      time.Time
}

// FieldResponse captures one form answer collected during a transition.
type FieldResponse struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// StageDuration is the time a project spent (or has spent so far) in one
// stage, in both wall-clock and business terms.
type StageDuration struct {
	WallMinutes   int
	BusinessHours float64
}
