package service

import (
	"context"
	"testing"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
	"github.com/dkarlsen/stagewatch/internal/repository"
	"github.com/dkarlsen/stagewatch/internal/testutil"
	"github.com/dkarlsen/stagewatch/internal/timecalc"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chronologyFixture struct {
	svc           ChronologyService
	notifications repository.NotificationRepo
	chronology    repository.ChronologyRepo
	ruleRepo      repository.RuleRepo
	projectType   *domain.ProjectType
	stages        []*domain.Stage
	project       *domain.Project
}

func setupChronology(t *testing.T) *chronologyFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	typeRepo := repository.NewSQLiteProjectTypeRepo(database)
	stageRepo := repository.NewSQLiteStageRepo(database)
	projRepo := repository.NewSQLiteProjectRepo(database)

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
	project.ClientID = "client-1"
	require.NoError(t, projRepo.Create(ctx, project))

	return &chronologyFixture{
		svc: NewChronologyService(
			testutil.NewTestUoW(database),
			repository.NewSQLiteChronologyRepo(database),
			stageRepo,
			nil,
		),
		notifications: repository.NewSQLiteNotificationRepo(database),
		chronology:    repository.NewSQLiteChronologyRepo(database),
		ruleRepo:      repository.NewSQLiteRuleRepo(database),
		projectType:   pt,
		stages:        stages,
		project:       project,
	}
}

func TestChronology_Append_FirstEntryHasNoOrigin(t *testing.T) {
	fx := setupChronology(t)
	ctx := context.Background()

	entry, err := fx.svc.Append(ctx, AppendRequest{
		ProjectID: fx.project.ID,
		ToStageID: fx.stages[0].ID,
		ChangedBy: "user-1",
	})
	require.NoError(t, err)
	assert.Nil(t, entry.FromStageID)
	assert.Equal(t, fx.stages[0].ID, entry.ToStageID)
	require.NotNil(t, entry.Timestamp)
}

func TestChronology_Append_ChainsFromLatest(t *testing.T) {
	fx := setupChronology(t)
	ctx := context.Background()

	_, err := fx.svc.Append(ctx, AppendRequest{ProjectID: fx.project.ID, ToStageID: fx.stages[0].ID})
	require.NoError(t, err)
	second, err := fx.svc.Append(ctx, AppendRequest{ProjectID: fx.project.ID, ToStageID: fx.stages[1].ID})
	require.NoError(t, err)

	require.NotNil(t, second.FromStageID)
	assert.Equal(t, fx.stages[0].ID, *second.FromStageID)

	current, err := fx.svc.CurrentStage(ctx, fx.project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Review", current.Name)
}

func TestChronology_Append_RejectsForeignStage(t *testing.T) {
	fx := setupChronology(t)
	ctx := context.Background()

	_, err := fx.svc.Append(ctx, AppendRequest{
		ProjectID: fx.project.ID,
		ToStageID: uuid.New().String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStage)

	// Nothing was written.
	_, err = fx.chronology.Latest(ctx, fx.project.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChronology_Append_UnknownProject(t *testing.T) {
	fx := setupChronology(t)
	_, err := fx.svc.Append(context.Background(), AppendRequest{
		ProjectID: "missing",
		ToStageID: fx.stages[0].ID,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChronology_Append_MaterializesEntryRule(t *testing.T) {
	fx := setupChronology(t)
	ctx := context.Background()

	// Entry rule on Approved, SMS channel.
	rule := testutil.NewTestStageRule(fx.projectType.ID, fx.stages[2].ID, domain.TriggerStageEntry,
		testutil.WithChannel(domain.ChannelSMS))
	require.NoError(t, fx.ruleRepo.Create(ctx, rule))

	_, err := fx.svc.Append(ctx, AppendRequest{ProjectID: fx.project.ID, ToStageID: fx.stages[1].ID})
	require.NoError(t, err)

	entry, err := fx.svc.Append(ctx, AppendRequest{ProjectID: fx.project.ID, ToStageID: fx.stages[2].ID})
	require.NoError(t, err)

	list, err := fx.notifications.ListForProject(ctx, fx.project.ID, domain.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ChannelSMS, list[0].Channel)
	assert.Equal(t, domain.TriggerStageEntry, list[0].TriggerKind)
	assert.True(t, list[0].ScheduledFor.Equal(entry.Timestamp.UTC()))
	assert.Equal(t, "client-1", list[0].RecipientID)
}

func TestChronology_Append_MaterializesExitRule(t *testing.T) {
	fx := setupChronology(t)
	ctx := context.Background()

	rule := testutil.NewTestStageRule(fx.projectType.ID, fx.stages[0].ID, domain.TriggerStageExit)
	require.NoError(t, fx.ruleRepo.Create(ctx, rule))

	// Arriving at the stage does not fire the exit rule.
	_, err := fx.svc.Append(ctx, AppendRequest{ProjectID: fx.project.ID, ToStageID: fx.stages[0].ID})
	require.NoError(t, err)
	list, err := fx.notifications.ListForProject(ctx, fx.project.ID, domain.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Leaving it does.
	_, err = fx.svc.Append(ctx, AppendRequest{ProjectID: fx.project.ID, ToStageID: fx.stages[1].ID})
	require.NoError(t, err)
	list, err = fx.notifications.ListForProject(ctx, fx.project.ID, domain.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestChronology_TimeInStage_Historical(t *testing.T) {
	fx := setupChronology(t)
	cal := timecalc.DefaultCalendar()

	// Wednesday 10:00 -> 14:00 occupancy for the oldest entry.
	t0 := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	t1 := time.Date(2024, 6, 5, 14, 0, 0, 0, time.UTC)
	entries := []*domain.ChronologyEntry{
		{ToStageID: fx.stages[1].ID, Timestamp: &t1},
		{ToStageID: fx.stages[0].ID, Timestamp: &t0},
	}

	dur, err := fx.svc.TimeInStage(entries, 1, time.Now().UTC(), cal)
	require.NoError(t, err)
	assert.Equal(t, 240, dur.WallMinutes)
	assert.InDelta(t, 4.0, dur.BusinessHours, 1e-9)
}

func TestChronology_TimeInStage_LiveRecomputesAgainstNow(t *testing.T) {
	fx := setupChronology(t)
	cal := timecalc.DefaultCalendar()

	t0 := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	entries := []*domain.ChronologyEntry{
		{ToStageID: fx.stages[0].ID, Timestamp: &t0},
	}

	dur1, err := fx.svc.TimeInStage(entries, 0, t0.Add(time.Hour), cal)
	require.NoError(t, err)
	dur2, err := fx.svc.TimeInStage(entries, 0, t0.Add(2*time.Hour), cal)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, dur1.BusinessHours, 1e-9)
	assert.InDelta(t, 2.0, dur2.BusinessHours, 1e-9)
}

func TestChronology_TimeInStage_NilTimestampIsZero(t *testing.T) {
	fx := setupChronology(t)

	entries := []*domain.ChronologyEntry{
		{ToStageID: fx.stages[0].ID, Timestamp: nil},
	}
	dur, err := fx.svc.TimeInStage(entries, 0, time.Now().UTC(), timecalc.DefaultCalendar())
	require.NoError(t, err)
	assert.Zero(t, dur.WallMinutes)
	assert.Zero(t, dur.BusinessHours)
}

func TestChronology_StageSLA_FlagsBreach(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	typeRepo := repository.NewSQLiteProjectTypeRepo(database)
	stageRepo := repository.NewSQLiteStageRepo(database)
	projRepo := repository.NewSQLiteProjectRepo(database)
	chronoRepo := repository.NewSQLiteChronologyRepo(database)

	pt := testutil.NewTestProjectType("Pipeline")
	require.NoError(t, typeRepo.Create(ctx, pt))
	// Review is capped at 2 business hours per visit.
	review := testutil.NewTestStage(pt.ID, "Review", testutil.WithMaxInstanceHours(2))
	done := testutil.NewTestStage(pt.ID, "Done", testutil.WithFinal())
	require.NoError(t, stageRepo.Create(ctx, review))
	require.NoError(t, stageRepo.Create(ctx, done))

	project := testutil.NewTestProject(pt.ID, "Acme")
	require.NoError(t, projRepo.Create(ctx, project))

	// Review occupied Wednesday 09:00-14:00 = 5 business hours.
	t0 := time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)
	t1 := time.Date(2024, 6, 5, 14, 0, 0, 0, time.UTC)
	require.NoError(t, chronoRepo.Create(ctx, &domain.ChronologyEntry{
		ID: uuid.New().String(), ProjectID: project.ID, ToStageID: review.ID, Timestamp: &t0, CreatedAt: t0,
	}))
	from := review.ID
	require.NoError(t, chronoRepo.Create(ctx, &domain.ChronologyEntry{
		ID: uuid.New().String(), ProjectID: project.ID, FromStageID: &from, ToStageID: done.ID, Timestamp: &t1, CreatedAt: t1,
	}))

	svc := NewChronologyService(testutil.NewTestUoW(database), chronoRepo, stageRepo, nil)
	report, err := svc.StageSLA(ctx, project.ID, t1, timecalc.DefaultCalendar())
	require.NoError(t, err)

	var reviewStatus *StageSLAStatus
	for i := range report {
		if report[i].StageID == review.ID {
			reviewStatus = &report[i]
		}
	}
	require.NotNil(t, reviewStatus)
	assert.InDelta(t, 5.0, reviewStatus.BusinessHours, 1e-9)
	assert.True(t, reviewStatus.InstanceBreached)
	assert.False(t, reviewStatus.TotalBreached)
}
