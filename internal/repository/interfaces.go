package repository

import (
	"context"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
)

type ProjectTypeRepo interface {
	Create(ctx context.Context, pt *domain.ProjectType) error
	GetByID(ctx context.Context, id string) (*domain.ProjectType, error)
	List(ctx context.Context) ([]*domain.ProjectType, error)
}

type StageRepo interface {
	Create(ctx context.Context, s *domain.Stage) error
	GetByID(ctx context.Context, id string) (*domain.Stage, error)
	ListByType(ctx context.Context, projectTypeID string) ([]*domain.Stage, error)
	Update(ctx context.Context, s *domain.Stage) error
	Delete(ctx context.Context, id string) error
	// CountReferences reports chronology entries and rules pointing at the
	// stage; deletion is blocked while the count is non-zero.
	CountReferences(ctx context.Context, id string) (int, error)
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListActiveByType(ctx context.Context, projectTypeID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
}

type RuleRepo interface {
	Create(ctx context.Context, r *domain.NotificationRule) error
	GetByID(ctx context.Context, id string) (*domain.NotificationRule, error)
	ListByType(ctx context.Context, projectTypeID string) ([]*domain.NotificationRule, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type ChronologyRepo interface {
	Create(ctx context.Context, e *domain.ChronologyEntry) error
	// Latest returns the newest entry for a project, ErrNotFound when the
	// project has no entries yet.
	Latest(ctx context.Context, projectID string) (*domain.ChronologyEntry, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ChronologyEntry, error)
}

type NotificationRepo interface {
	// InsertIfAbsent inserts the row unless one already exists for the
	// idempotency key (project, rule, recipient, scheduledFor). Reports
	// whether a row was created.
	InsertIfAbsent(ctx context.Context, n *domain.ScheduledNotification) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.ScheduledNotification, error)
	ListForProject(ctx context.Context, projectID string, filter domain.NotificationFilter) ([]*domain.ScheduledNotification, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*domain.ScheduledNotification, error)

	// Status transitions below are compare-and-swap on the expected prior
	// status; each reports whether the swap applied.
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id, code, reason string, at time.Time) (bool, error)
	Cancel(ctx context.Context, id string, at time.Time) (bool, error)
	Reactivate(ctx context.Context, id string, at time.Time) (bool, error)
	RescheduleImmediate(ctx context.Context, id string, at time.Time) (bool, error)
}
