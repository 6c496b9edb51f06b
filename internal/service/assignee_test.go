package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/dkarlsen/stagewatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirect struct {
	userID string
	err    error
}

func (f fakeDirect) DirectAssignee(ctx context.Context, projectID string) (string, error) {
	return f.userID, f.err
}

type fakeRoles struct {
	byRole map[string]string
}

func (f fakeRoles) UserForRole(ctx context.Context, role string) (string, error) {
	return f.byRole[role], nil
}

func setupAssigneeStage(t *testing.T, opts ...testutil.StageOption) (repository.StageRepo, *domain.Stage) {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	typeRepo := repository.NewSQLiteProjectTypeRepo(database)
	pt := testutil.NewTestProjectType("Pipeline")
	require.NoError(t, typeRepo.Create(ctx, pt))

	stageRepo := repository.NewSQLiteStageRepo(database)
	stage := testutil.NewTestStage(pt.ID, "Review", opts...)
	require.NoError(t, stageRepo.Create(ctx, stage))
	return stageRepo, stage
}

func TestAssignee_DirectAssignmentWins(t *testing.T) {
	stages, stage := setupAssigneeStage(t, testutil.WithAssignedRole("reviewer"))
	r := NewAssigneeResolver(
		fakeDirect{userID: "direct-user"},
		fakeRoles{byRole: map[string]string{"reviewer": "role-user"}},
		stages, "fallback-user")

	got, err := r.ResolveForStage(context.Background(), "p1", stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "direct-user", got)
}

func TestAssignee_StageRoleWhenNoDirect(t *testing.T) {
	stages, stage := setupAssigneeStage(t, testutil.WithAssignedRole("reviewer"))
	r := NewAssigneeResolver(
		fakeDirect{},
		fakeRoles{byRole: map[string]string{"reviewer": "role-user"}},
		stages, "fallback-user")

	got, err := r.ResolveForStage(context.Background(), "p1", stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "role-user", got)
}

func TestAssignee_FallbackWhenRoleUnmapped(t *testing.T) {
	stages, stage := setupAssigneeStage(t, testutil.WithAssignedRole("reviewer"))
	r := NewAssigneeResolver(fakeDirect{}, fakeRoles{}, stages, "fallback-user")

	got, err := r.ResolveForStage(context.Background(), "p1", stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "fallback-user", got)
}

func TestAssignee_NobodyResolvable(t *testing.T) {
	stages, stage := setupAssigneeStage(t)
	r := NewAssigneeResolver(nil, nil, stages, "")

	got, err := r.ResolveForStage(context.Background(), "p1", stage.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssignee_DirectLookupError(t *testing.T) {
	stages, stage := setupAssigneeStage(t)
	boom := errors.New("directory offline")
	r := NewAssigneeResolver(fakeDirect{err: boom}, nil, stages, "fallback-user")

	_, err := r.ResolveForStage(context.Background(), "p1", stage.ID)
	assert.ErrorIs(t, err, boom)
}

func TestAssignee_UnknownStage(t *testing.T) {
	stages, _ := setupAssigneeStage(t)
	r := NewAssigneeResolver(nil, nil, stages, "fallback-user")

	_, err := r.ResolveForStage(context.Background(), "p1", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssignee_StaticRoleDirectory(t *testing.T) {
	stages, stage := setupAssigneeStage(t, testutil.WithAssignedRole("reviewer"))
	r := NewAssigneeResolver(nil,
		StaticRoleDirectory{"reviewer": "role-user"}, stages, "fallback-user")

	got, err := r.ResolveForStage(context.Background(), "p1", stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "role-user", got)
}

func TestLoadRoleDirectoryFile_MissingPath(t *testing.T) {
	roles, err := LoadRoleDirectoryFile("")
	require.NoError(t, err)
	assert.Empty(t, roles)

	roles, err = LoadRoleDirectoryFile("/nonexistent/roles.json")
	require.NoError(t, err)
	assert.Empty(t, roles)
}
