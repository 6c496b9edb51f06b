package service

import (
	"context"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
)

// AppendRequest carries one stage transition into the chronology ledger.
type AppendRequest struct {
	ProjectID      string
	ToStageID      string
	Reason         string
	ChangedBy      string
	FieldResponses []domain.FieldResponse
}

// StageSLAStatus is one row of the per-stage SLA report for a project.
type StageSLAStatus struct {
	StageID          string
	StageName        string
	BusinessHours    float64
	MaxInstanceHours *float64
	MaxTotalHours    *float64
	InstanceBreached bool
	TotalBreached    bool
}

type ChronologyService interface {
	// Append records a stage transition and materializes any
	// stage-triggered notifications in the same transaction.
	Append(ctx context.Context, req AppendRequest) (*domain.ChronologyEntry, error)
	History(ctx context.Context, projectID string) ([]*domain.ChronologyEntry, error)
	CurrentStage(ctx context.Context, projectID string) (*domain.Stage, error)
	// TimeInStage derives the duration of entries[index], entries ordered
	// newest first. Index 0 is live: recomputed against now on every call.
	TimeInStage(entries []*domain.ChronologyEntry, index int, now time.Time, cal timecalc.WorkCalendar) (domain.StageDuration, error)
	StageSLA(ctx context.Context, projectID string, now time.Time, cal timecalc.WorkCalendar) ([]StageSLAStatus, error)
}

// GenerateResult reports how many rows a generation run created; repeat
// runs over unchanged input report zero.
type GenerateResult struct {
	CreatedCount int
}

// ProcessResult reports delivery outcomes of one due-processing pass.
type ProcessResult struct {
	SentCount   int
	FailedCount int
}

// BulkCancelResult counts only rows actually moved to cancelled; rows in
// other states are skipped silently.
type BulkCancelResult struct {
	CancelledCount int
}

type SchedulerService interface {
	Generate(ctx context.Context, projectTypeID string) (GenerateResult, error)
	ProcessDue(ctx context.Context, asOf time.Time) (ProcessResult, error)
	BulkCancel(ctx context.Context, ids []string) (BulkCancelResult, error)
	Reactivate(ctx context.Context, id string) (*domain.ScheduledNotification, error)
	RescheduleImmediate(ctx context.Context, id string) (*domain.ScheduledNotification, error)
	ListForProject(ctx context.Context, projectID string, filter domain.NotificationFilter) ([]*domain.ScheduledNotification, error)
}

type StageService interface {
	Create(ctx context.Context, s *domain.Stage) error
	GetByID(ctx context.Context, id string) (*domain.Stage, error)
	ListByType(ctx context.Context, projectTypeID string) ([]*domain.Stage, error)
	Update(ctx context.Context, s *domain.Stage) error
	Delete(ctx context.Context, id string) error
}

// RecipientResolver determines which recipients a rule occurrence fans out
// to for a given project. Recipient data lives outside the core.
type RecipientResolver interface {
	Recipients(ctx context.Context, project *domain.Project, rule *domain.NotificationRule) ([]string, error)
}

// ClientRecipientResolver is the default: the project's client, when set.
type ClientRecipientResolver struct{}

func (ClientRecipientResolver) Recipients(ctx context.Context, project *domain.Project, rule *domain.NotificationRule) ([]string, error) {
	if project.ClientID == "" {
		return nil, nil
	}
	return []string{project.ClientID}, nil
}
