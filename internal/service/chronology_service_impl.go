package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/db"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/dkarlsen/stagewatch/internal/rules"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
	"github.com/google/uuid"
)

type chronologyService struct {
	uow        db.UnitOfWork
	chronology repository.ChronologyRepo
	stages     repository.StageRepo
	recipients RecipientResolver
	observer   UseCaseObserver
}

// NewChronologyService creates the ledger service. Appends run inside the
// unit of work so the entry and its stage-triggered notifications commit
// together.
func NewChronologyService(uow db.UnitOfWork, chronology repository.ChronologyRepo, stages repository.StageRepo, recipients RecipientResolver, observers ...UseCaseObserver) ChronologyService {
	if recipients == nil {
		recipients = ClientRecipientResolver{}
	}
	return &chronologyService{
		uow:        uow,
		chronology: chronology,
		stages:     stages,
		recipients: recipients,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *chronologyService) Append(ctx context.Context, req AppendRequest) (*domain.ChronologyEntry, error) {
	started := time.Now().UTC()
	// Second precision matches what the store round-trips.
	entry, created, err := s.append(ctx, req, started.Truncate(time.Second))
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "chronology_append",
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"project_id": req.ProjectID, "notifications_created": created},
		StartedAt: started,
	})
	return entry, err
}

func (s *chronologyService) append(ctx context.Context, req AppendRequest, now time.Time) (*domain.ChronologyEntry, int, error) {
	var entry *domain.ChronologyEntry
	created := 0

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLiteProjectRepo(tx)
		txStages := repository.NewSQLiteStageRepo(tx)
		txChronology := repository.NewSQLiteChronologyRepo(tx)
		txRules := repository.NewSQLiteRuleRepo(tx)
		txNotifications := repository.NewSQLiteNotificationRepo(tx)

		project, err := txProjects.GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}

		stageList, err := txStages.ListByType(ctx, project.ProjectTypeID)
		if err != nil {
			return err
		}
		if !stageInType(stageList, req.ToStageID) {
			return fmt.Errorf("stage %s for project %s: %w", req.ToStageID, req.ProjectID, domain.ErrInvalidStage)
		}

		// The latest entry's destination is the project's current stage
		// and becomes this entry's origin. First entry has no origin.
		var fromStage *string
		latest, err := txChronology.Latest(ctx, req.ProjectID)
		switch {
		case err == nil:
			from := latest.ToStageID
			fromStage = &from
		case errors.Is(err, repository.ErrNotFound):
			// project creation
		default:
			return err
		}

		ts := now
		entry = &domain.ChronologyEntry{
			ID:             uuid.New().String(),
			ProjectID:      req.ProjectID,
			FromStageID:    fromStage,
			ToStageID:      req.ToStageID,
			Reason:         req.Reason,
			ChangedBy:      req.ChangedBy,
			Timestamp:      &ts,
			FieldResponses: req.FieldResponses,
			CreatedAt:      now,
		}
		if err := txChronology.Create(ctx, entry); err != nil {
			return err
		}

		ruleSet, err := txRules.ListByType(ctx, project.ProjectTypeID)
		if err != nil {
			return err
		}
		for _, occ := range s.stageOccurrences(ctx, ruleSet, project, fromStage, req.ToStageID, now) {
			ok, err := txNotifications.InsertIfAbsent(ctx, notificationFromOccurrence(occ, now))
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entry, created, nil
}

func (s *chronologyService) stageOccurrences(ctx context.Context, ruleSet []*domain.NotificationRule, project *domain.Project, fromStage *string, toStage string, at time.Time) []rules.Occurrence {
	var out []rules.Occurrence
	for _, rule := range ruleSet {
		recipients, err := s.recipients.Recipients(ctx, project, rule)
		if err != nil {
			// A recipient lookup failure skips this rule; delivery will
			// surface missing contact data on its own.
			continue
		}
		out = append(out, rules.ResolveStageRules(
			[]domain.NotificationRule{*rule}, fromStage, toStage, at, project.ID, recipients)...)
	}
	return out
}

func (s *chronologyService) History(ctx context.Context, projectID string) ([]*domain.ChronologyEntry, error) {
	return s.chronology.ListByProject(ctx, projectID)
}

func (s *chronologyService) CurrentStage(ctx context.Context, projectID string) (*domain.Stage, error) {
	latest, err := s.chronology.Latest(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.stages.GetByID(ctx, latest.ToStageID)
}

func (s *chronologyService) TimeInStage(entries []*domain.ChronologyEntry, index int, now time.Time, cal timecalc.WorkCalendar) (domain.StageDuration, error) {
	if index < 0 || index >= len(entries) {
		return domain.StageDuration{}, fmt.Errorf("entry index %d out of range (%d entries)", index, len(entries))
	}

	entry := entries[index]
	if entry.Timestamp == nil {
		return domain.StageDuration{}, nil
	}

	// Entries are newest first, so the end of this stage's occupancy is
	// the next newer entry; the newest entry is still open and measured
	// against now.
	end := now
	if index > 0 {
		next := entries[index-1]
		if next.Timestamp == nil {
			return domain.StageDuration{}, nil
		}
		end = *next.Timestamp
	}

	hours, err := timecalc.BusinessHours(*entry.Timestamp, end, cal)
	if err != nil {
		return domain.StageDuration{}, err
	}
	return domain.StageDuration{
		WallMinutes:   int(end.Sub(*entry.Timestamp).Minutes()),
		BusinessHours: hours,
	}, nil
}

func (s *chronologyService) StageSLA(ctx context.Context, projectID string, now time.Time, cal timecalc.WorkCalendar) ([]StageSLAStatus, error) {
	entries, err := s.chronology.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	type accumulator struct {
		total       float64
		maxInstance float64
	}
	byStage := make(map[string]*accumulator)
	for i, entry := range entries {
		dur, err := s.TimeInStage(entries, i, now, cal)
		if err != nil {
			return nil, err
		}
		acc := byStage[entry.ToStageID]
		if acc == nil {
			acc = &accumulator{}
			byStage[entry.ToStageID] = acc
		}
		acc.total += dur.BusinessHours
		if dur.BusinessHours > acc.maxInstance {
			acc.maxInstance = dur.BusinessHours
		}
	}

	var report []StageSLAStatus
	for stageID, acc := range byStage {
		stage, err := s.stages.GetByID(ctx, stageID)
		if err != nil {
			return nil, err
		}
		status := StageSLAStatus{
			StageID:          stageID,
			StageName:        stage.Name,
			BusinessHours:    acc.total,
			MaxInstanceHours: stage.MaxInstanceTimeHours,
			MaxTotalHours:    stage.MaxTotalTimeHours,
		}
		if stage.MaxInstanceTimeHours != nil && acc.maxInstance > *stage.MaxInstanceTimeHours {
			status.InstanceBreached = true
		}
		if stage.MaxTotalTimeHours != nil && acc.total > *stage.MaxTotalTimeHours {
			status.TotalBreached = true
		}
		report = append(report, status)
	}
	return report, nil
}

func stageInType(stages []*domain.Stage, stageID string) bool {
	for _, s := range stages {
		if s.ID == stageID {
			return true
		}
	}
	return false
}
