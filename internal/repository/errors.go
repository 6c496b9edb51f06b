package repository

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a write lost against a concurrent change,
	// such as a chronology append racing another transition on the same
	// project.
	ErrConflict = errors.New("conflicting concurrent change")
)
