package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/google/uuid"
)

type stageService struct {
	stages repository.StageRepo
}

// NewStageService creates the stage administration service.
func NewStageService(stages repository.StageRepo) StageService {
	return &stageService{stages: stages}
}

func (s *stageService) Create(ctx context.Context, stage *domain.Stage) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	if stage.ID == "" {
		stage.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stage.CreatedAt = now
	stage.UpdatedAt = now
	return s.stages.Create(ctx, stage)
}

func (s *stageService) GetByID(ctx context.Context, id string) (*domain.Stage, error) {
	return s.stages.GetByID(ctx, id)
}

func (s *stageService) ListByType(ctx context.Context, projectTypeID string) ([]*domain.Stage, error) {
	return s.stages.ListByType(ctx, projectTypeID)
}

func (s *stageService) Update(ctx context.Context, stage *domain.Stage) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	// Name and color edits are non-breaking and always allowed; the row
	// keeps its identity so chronology references stay intact.
	if _, err := s.stages.GetByID(ctx, stage.ID); err != nil {
		return err
	}
	stage.UpdatedAt = time.Now().UTC()
	return s.stages.Update(ctx, stage)
}

func (s *stageService) Delete(ctx context.Context, id string) error {
	if _, err := s.stages.GetByID(ctx, id); err != nil {
		return err
	}
	refs, err := s.stages.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("stage %s has %d references: %w", id, refs, domain.ErrStageInUse)
	}
	return s.stages.Delete(ctx, id)
}
