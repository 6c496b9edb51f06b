package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkarlsen/stagewatch/internal/delivery"
	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/dkarlsen/stagewatch/internal/rules"
)

// Attempter is the delivery port the scheduler drives.
type Attempter interface {
	Attempt(ctx context.Context, n *domain.ScheduledNotification) delivery.Outcome
}

type schedulerService struct {
	notifications repository.NotificationRepo
	projects      repository.ProjectRepo
	projectTypes  repository.ProjectTypeRepo
	ruleRepo      repository.RuleRepo
	worker        Attempter
	tasks         delivery.TaskCreator
	recipients    RecipientResolver
	observer      UseCaseObserver

	// inflight guards against the same row being delivered twice by
	// concurrent ProcessDue passes in this process; the status CAS covers
	// the cross-process case.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSchedulerService creates the notification scheduler.
func NewSchedulerService(
	notifications repository.NotificationRepo,
	projects repository.ProjectRepo,
	projectTypes repository.ProjectTypeRepo,
	ruleRepo repository.RuleRepo,
	worker Attempter,
	tasks delivery.TaskCreator,
	recipients RecipientResolver,
	observers ...UseCaseObserver,
) SchedulerService {
	if recipients == nil {
		recipients = ClientRecipientResolver{}
	}
	return &schedulerService{
		notifications: notifications,
		projects:      projects,
		projectTypes:  projectTypes,
		ruleRepo:      ruleRepo,
		worker:        worker,
		tasks:         tasks,
		recipients:    recipients,
		observer:      useCaseObserverOrNoop(observers),
		inflight:      make(map[string]struct{}),
	}
}

func (s *schedulerService) Generate(ctx context.Context, projectTypeID string) (GenerateResult, error) {
	started := time.Now().UTC()
	result, err := s.generate(ctx, projectTypeID, started)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "notifications_generate",
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"project_type_id": projectTypeID, "created": result.CreatedCount},
		StartedAt: started,
	})
	return result, err
}

func (s *schedulerService) generate(ctx context.Context, projectTypeID string, now time.Time) (GenerateResult, error) {
	var result GenerateResult

	if _, err := s.projectTypes.GetByID(ctx, projectTypeID); err != nil {
		return result, err
	}
	ruleSet, err := s.ruleRepo.ListByType(ctx, projectTypeID)
	if err != nil {
		return result, err
	}
	projects, err := s.projects.ListActiveByType(ctx, projectTypeID)
	if err != nil {
		return result, err
	}

	for _, project := range projects {
		for _, rule := range ruleSet {
			recipients, err := s.recipients.Recipients(ctx, project, rule)
			if err != nil {
				return result, fmt.Errorf("resolving recipients for rule %s: %w", rule.ID, err)
			}
			occurrences := rules.ResolveDateRules([]domain.NotificationRule{*rule}, project, recipients)
			for _, occ := range occurrences {
				created, err := s.notifications.InsertIfAbsent(ctx, notificationFromOccurrence(occ, now))
				if err != nil {
					return result, err
				}
				if created {
					result.CreatedCount++
				}
			}
		}
	}
	return result, nil
}

func (s *schedulerService) ProcessDue(ctx context.Context, asOf time.Time) (ProcessResult, error) {
	started := time.Now().UTC()
	result, err := s.processDue(ctx, asOf)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:     "notifications_process_due",
		Duration: time.Since(started),
		Success:  err == nil,
		Err:      err,
		Fields: map[string]any{
			"as_of":  asOf.UTC().Format(time.RFC3339),
			"sent":   result.SentCount,
			"failed": result.FailedCount,
		},
		StartedAt: started,
	})
	return result, err
}

func (s *schedulerService) processDue(ctx context.Context, asOf time.Time) (ProcessResult, error) {
	var result ProcessResult

	due, err := s.notifications.ListDue(ctx, asOf)
	if err != nil {
		return result, err
	}

	for _, n := range due {
		if !s.acquire(n.ID) {
			// Another pass in this process holds the row.
			continue
		}
		sent, failed, err := s.deliverOne(ctx, n)
		s.release(n.ID)
		if err != nil {
			return result, err
		}
		result.SentCount += sent
		result.FailedCount += failed
	}
	return result, nil
}

// deliverOne runs the attempt and records the outcome with a status CAS.
// A swap that does not apply means the row was cancelled or taken by a
// concurrent pass after listing; its outcome is discarded and not counted.
func (s *schedulerService) deliverOne(ctx context.Context, n *domain.ScheduledNotification) (sent, failed int, err error) {
	now := time.Now().UTC()
	outcome := s.worker.Attempt(ctx, n)

	if !outcome.Success {
		applied, err := s.notifications.MarkFailed(ctx, n.ID, outcome.FailureCode, outcome.FailureReason, now)
		if err != nil {
			return 0, 0, err
		}
		if applied {
			return 0, 1, nil
		}
		return 0, 0, nil
	}

	applied, err := s.notifications.MarkSent(ctx, n.ID, now)
	if err != nil {
		return 0, 0, err
	}
	if !applied {
		return 0, 0, nil
	}

	// Client-task creation rides on the scheduled-to-sent swap, which
	// makes it at-most-once per notification.
	if n.HasClientTask && s.tasks != nil {
		if taskErr := s.tasks.CreateClientTask(ctx, n); taskErr != nil {
			s.observer.ObserveUseCase(ctx, UseCaseEvent{
				Name:      "client_task_create",
				Success:   false,
				Err:       taskErr,
				Fields:    map[string]any{"notification_id": n.ID},
				StartedAt: now,
			})
		}
	}
	return 1, 0, nil
}

func (s *schedulerService) BulkCancel(ctx context.Context, ids []string) (BulkCancelResult, error) {
	var result BulkCancelResult
	now := time.Now().UTC()

	for _, id := range ids {
		applied, err := s.notifications.Cancel(ctx, id, now)
		if err != nil {
			return result, err
		}
		if applied {
			result.CancelledCount++
		}
	}
	return result, nil
}

func (s *schedulerService) Reactivate(ctx context.Context, id string) (*domain.ScheduledNotification, error) {
	applied, err := s.notifications.Reactivate(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.transitionRefusal(ctx, id, "reactivate")
	}
	return s.notifications.GetByID(ctx, id)
}

func (s *schedulerService) RescheduleImmediate(ctx context.Context, id string) (*domain.ScheduledNotification, error) {
	applied, err := s.notifications.RescheduleImmediate(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.transitionRefusal(ctx, id, "reschedule")
	}
	return s.notifications.GetByID(ctx, id)
}

// transitionRefusal distinguishes "row does not exist" from "row is in the
// wrong state" after a swap did not apply.
func (s *schedulerService) transitionRefusal(ctx context.Context, id, op string) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%s notification %s in status %s: %w", op, id, n.Status, domain.ErrInvalidTransition)
}

func (s *schedulerService) ListForProject(ctx context.Context, projectID string, filter domain.NotificationFilter) ([]*domain.ScheduledNotification, error) {
	return s.notifications.ListForProject(ctx, projectID, filter)
}

func (s *schedulerService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.inflight[id]; held {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *schedulerService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
