package domain

import "time"

// Project is the business entity moving through a workflow. Its current
// stage is derived from the chronology ledger, not stored here.
type Project struct {
	ID            string
	ProjectTypeID string
	Name          string
	ClientID      string
	StartDate     *time.Time
	DueDate       *time.Time
	Status        ProjectStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReferenceDate returns the project date a date-offset rule anchors to,
// or nil when the project has no such date set.
func (p *Project) ReferenceDate(ref DateReference) *time.Time {
	switch ref {
	case ReferenceStartDate:
		return p.StartDate
	case ReferenceDueDate:
		return p.DueDate
	default:
		return nil
	}
}
