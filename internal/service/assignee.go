package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dkarlsen/stagewatch/internal/repository"
)

// DirectAssignmentSource answers whether a project has an explicit assignee
// override. Assignment data lives outside the core.
type DirectAssignmentSource interface {
	DirectAssignee(ctx context.Context, projectID string) (string, error)
}

// RoleDirectory maps a stage's assigned role to a concrete user.
type RoleDirectory interface {
	UserForRole(ctx context.Context, role string) (string, error)
}

// AssigneeResolver determines who is responsible for a project once it
// lands in a stage. The ledger itself never stores this; callers resolve
// it on demand.
//
// Fallback order: direct project assignment, then the stage's role, then
// the configured fallback user, then nobody (empty string).
type AssigneeResolver struct {
	direct         DirectAssignmentSource
	roles          RoleDirectory
	stages         repository.StageRepo
	fallbackUserID string
}

// NewAssigneeResolver creates a resolver. direct and roles may be nil when
// the deployment has no such source; those steps are then skipped.
func NewAssigneeResolver(direct DirectAssignmentSource, roles RoleDirectory, stages repository.StageRepo, fallbackUserID string) *AssigneeResolver {
	return &AssigneeResolver{
		direct:         direct,
		roles:          roles,
		stages:         stages,
		fallbackUserID: fallbackUserID,
	}
}

// ResolveForStage returns the responsible user for the project in the
// given stage, or "" when nobody could be resolved.
func (r *AssigneeResolver) ResolveForStage(ctx context.Context, projectID, stageID string) (string, error) {
	if r.direct != nil {
		userID, err := r.direct.DirectAssignee(ctx, projectID)
		if err != nil {
			return "", err
		}
		if userID != "" {
			return userID, nil
		}
	}

	stage, err := r.stages.GetByID(ctx, stageID)
	if err != nil {
		return "", err
	}
	if stage.AssignedRole != "" && r.roles != nil {
		userID, err := r.roles.UserForRole(ctx, stage.AssignedRole)
		if err != nil {
			return "", err
		}
		if userID != "" {
			return userID, nil
		}
	}

	return r.fallbackUserID, nil
}

// StaticRoleDirectory maps roles to users from an in-memory table. An
// unmapped role resolves to "", which lets the resolver fall through.
type StaticRoleDirectory map[string]string

func (d StaticRoleDirectory) UserForRole(_ context.Context, role string) (string, error) {
	return d[role], nil
}

// LoadRoleDirectoryFile reads a role-to-user map from a JSON file.
// A missing path yields an empty directory.
func LoadRoleDirectoryFile(path string) (StaticRoleDirectory, error) {
	if path == "" {
		return StaticRoleDirectory{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StaticRoleDirectory{}, nil
		}
		return nil, fmt.Errorf("reading role directory file: %w", err)
	}
	var roles StaticRoleDirectory
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("parsing role directory file %s: %w", path, err)
	}
	return roles, nil
}
