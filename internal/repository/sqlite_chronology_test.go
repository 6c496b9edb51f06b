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

func setupChronologyRepo(t *testing.T) (*SQLiteChronologyRepo, string, []*domain.Stage) {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	typeRepo := NewSQLiteProjectTypeRepo(database)
	stageRepo := NewSQLiteStageRepo(database)
	projRepo := NewSQLiteProjectRepo(database)

	pt := testutil.NewTestProjectType("Pipeline")
	require.NoError(t, typeRepo.Create(ctx, pt))

	stages := []*domain.Stage{
		testutil.NewTestStage(pt.ID, "New"),
		testutil.NewTestStage(pt.ID, "Review"),
		testutil.NewTestStage(pt.ID, "Approved", testutil.WithFinal()),
	}
	for _, s := range stages {
		require.NoError(t, stageRepo.Create(ctx, s))
	}

	project := testutil.NewTestProject(pt.ID, "Acme rollout")
	require.NoError(t, projRepo.Create(ctx, project))

	return NewSQLiteChronologyRepo(database), project.ID, stages
}

func entryAt(projectID string, from *string, to string, at time.Time) *domain.ChronologyEntry {
	ts := at
	return &domain.ChronologyEntry{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		FromStageID: from,
		ToStageID:   to,
		Timestamp:   &ts,
		CreatedAt:   at,
	}
}

func TestChronologyRepo_LatestReflectsCurrentStage(t *testing.T) {
	repo, projectID, stages := setupChronologyRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, entryAt(projectID, nil, stages[0].ID, base)))
	require.NoError(t, repo.Create(ctx, entryAt(projectID, &stages[0].ID, stages[1].ID, base.Add(2*time.Hour))))

	latest, err := repo.Latest(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, stages[1].ID, latest.ToStageID)
	require.NotNil(t, latest.FromStageID)
	assert.Equal(t, stages[0].ID, *latest.FromStageID)
}

func TestChronologyRepo_Latest_Empty(t *testing.T) {
	repo, projectID, _ := setupChronologyRepo(t)
	_, err := repo.Latest(context.Background(), projectID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChronologyRepo_ListNewestFirst(t *testing.T) {
	repo, projectID, stages := setupChronologyRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, entryAt(projectID, nil, stages[0].ID, base)))
	require.NoError(t, repo.Create(ctx, entryAt(projectID, &stages[0].ID, stages[1].ID, base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, entryAt(projectID, &stages[1].ID, stages[2].ID, base.Add(3*time.Hour))))

	entries, err := repo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, stages[2].ID, entries[0].ToStageID)
	assert.Equal(t, stages[0].ID, entries[2].ToStageID)
	assert.Nil(t, entries[2].FromStageID)
}

func TestChronologyRepo_FieldResponsesRoundTrip(t *testing.T) {
	repo, projectID, stages := setupChronologyRepo(t)
	ctx := context.Background()

	e := entryAt(projectID, nil, stages[0].ID, time.Now().UTC())
	e.Reason = "kickoff"
	e.ChangedBy = "user-7"
	e.FieldResponses = []domain.FieldResponse{
		{FieldID: "f-1", Label: "Budget confirmed", Value: "yes"},
		{FieldID: "f-2", Label: "PO number", Value: "PO-1234"},
	}
	require.NoError(t, repo.Create(ctx, e))

	latest, err := repo.Latest(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "kickoff", latest.Reason)
	require.Len(t, latest.FieldResponses, 2)
	assert.Equal(t, "PO-1234", latest.FieldResponses[1].Value)
}
