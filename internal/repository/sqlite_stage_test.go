package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStageRepo(t *testing.T) (*SQLiteStageRepo, *SQLiteChronologyRepo, *SQLiteRuleRepo, *SQLiteProjectRepo, string) {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	typeRepo := NewSQLiteProjectTypeRepo(database)
	pt := testutil.NewTestProjectType("Pipeline")
	require.NoError(t, typeRepo.Create(ctx, pt))

	return NewSQLiteStageRepo(database),
		NewSQLiteChronologyRepo(database),
		NewSQLiteRuleRepo(database),
		NewSQLiteProjectRepo(database),
		pt.ID
}

func TestStageRepo_ListOrderedBySortOrder(t *testing.T) {
	repo, _, _, _, typeID := setupStageRepo(t)
	ctx := context.Background()

	first := testutil.NewTestStage(typeID, "New", testutil.WithStageOrder(1000))
	second := testutil.NewTestStage(typeID, "Review", testutil.WithStageOrder(2000))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	stages, err := repo.ListByType(ctx, typeID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "New", stages[0].Name)
	assert.Equal(t, "Review", stages[1].Name)
}

func TestStageRepo_OrderUniquePerType(t *testing.T) {
	repo, _, _, _, typeID := setupStageRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestStage(typeID, "New", testutil.WithStageOrder(5000))))
	dup := testutil.NewTestStage(typeID, "Also new", testutil.WithStageOrder(5000))
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrConflict)
}

func TestStageRepo_SLAFieldsRoundTrip(t *testing.T) {
	repo, _, _, _, typeID := setupStageRepo(t)
	ctx := context.Background()

	stage := testutil.NewTestStage(typeID, "Review",
		testutil.WithAssignedRole("reviewer"), testutil.WithMaxInstanceHours(16))
	require.NoError(t, repo.Create(ctx, stage))

	fetched, err := repo.GetByID(ctx, stage.ID)
	require.NoError(t, err)
	assert.Equal(t, "reviewer", fetched.AssignedRole)
	require.NotNil(t, fetched.MaxInstanceTimeHours)
	assert.Equal(t, 16.0, *fetched.MaxInstanceTimeHours)
	assert.Nil(t, fetched.MaxTotalTimeHours)
}

func TestStageRepo_CountReferences(t *testing.T) {
	repo, chronoRepo, ruleRepo, projRepo, typeID := setupStageRepo(t)
	ctx := context.Background()

	stage := testutil.NewTestStage(typeID, "Review")
	require.NoError(t, repo.Create(ctx, stage))

	count, err := repo.CountReferences(ctx, stage.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	project := testutil.NewTestProject(typeID, "Acme")
	require.NoError(t, projRepo.Create(ctx, project))

	now := time.Now().UTC()
	require.NoError(t, chronoRepo.Create(ctx, &domain.ChronologyEntry{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		ToStageID: stage.ID,
		Timestamp: &now,
		CreatedAt: now,
	}))
	require.NoError(t, ruleRepo.Create(ctx,
		testutil.NewTestStageRule(typeID, stage.ID, domain.TriggerStageEntry)))

	count, err = repo.CountReferences(ctx, stage.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStageRepo_GetByID_NotFound(t *testing.T) {
	repo, _, _, _, _ := setupStageRepo(t)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
