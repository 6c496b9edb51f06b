package domain

import "errors"

var (
	// ErrInvalidTransition indicates a notification status change that the
	// state machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidStage indicates a chronology append to a stage that does not
	// belong to the project's type.
	ErrInvalidStage = errors.New("stage not valid for project type")

	// ErrStageInUse indicates a stage mutation blocked because chronology
	// entries or notification rules still reference it.
	ErrStageInUse = errors.New("stage is referenced and cannot be removed")
)
