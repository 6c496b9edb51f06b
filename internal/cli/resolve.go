package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkarlsen/stagewatch/internal/domain"
)

// resolveProjectType accepts a project type's ID, ID prefix, or name
// (case-insensitive) and returns the matching type.
func resolveProjectType(ctx context.Context, app *App, input string) (*domain.ProjectType, error) {
	if input == "" {
		return nil, fmt.Errorf("project type is required")
	}

	types, err := app.ProjectTypes.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, pt := range types {
		if pt.ID == input || strings.EqualFold(pt.Name, input) {
			return pt, nil
		}
	}

	var matches []*domain.ProjectType
	for _, pt := range types {
		if strings.HasPrefix(pt.ID, input) {
			matches = append(matches, pt)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("project type not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("project type %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveProject accepts a project's ID, ID prefix, or name and returns the
// matching project. Name and prefix matching scans active projects across
// all types.
func resolveProject(ctx context.Context, app *App, input string) (*domain.Project, error) {
	if input == "" {
		return nil, fmt.Errorf("project is required")
	}

	if p, err := app.Projects.GetByID(ctx, input); err == nil {
		return p, nil
	}

	types, err := app.ProjectTypes.List(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*domain.Project
	for _, pt := range types {
		projects, err := app.Projects.ListActiveByType(ctx, pt.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			if strings.EqualFold(p.Name, input) || strings.HasPrefix(p.ID, input) {
				matches = append(matches, p)
			}
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("project %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveStage accepts a stage's ID, ID prefix, or name within one project
// type.
func resolveStage(ctx context.Context, app *App, projectTypeID, input string) (*domain.Stage, error) {
	if input == "" {
		return nil, fmt.Errorf("stage is required")
	}

	stages, err := app.Stages.ListByType(ctx, projectTypeID)
	if err != nil {
		return nil, err
	}

	for _, s := range stages {
		if s.ID == input || strings.EqualFold(s.Name, input) {
			return s, nil
		}
	}

	var matches []*domain.Stage
	for _, s := range stages {
		if strings.HasPrefix(s.ID, input) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("stage not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("stage %q is ambiguous (%d matches)", input, len(matches))
	}
}
