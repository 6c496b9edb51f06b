package domain

import (
	"fmt"
	"time"
)

// Stage is one named step in a project type's workflow. Stages are ordered
// within their type; Order is unique per project type.
type Stage struct {
	ID                   string
	ProjectTypeID        string
	Name                 string
	Order                int
	Color                string
	AssignedRole         string
	MaxInstanceTimeHours *float64
	MaxTotalTimeHours    *float64
	IsFinal              bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate checks the fields a stage needs before it can be stored.
func (s *Stage) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	if s.ProjectTypeID == "" {
		return fmt.Errorf("stage must belong to a project type")
	}
	if s.Order < 0 {
		return fmt.Errorf("stage order must be non-negative, got %d", s.Order)
	}
	return nil
}

// ProjectType groups stages and notification rules for a family of projects.
type ProjectType struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
