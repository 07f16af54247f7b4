package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisPersistence(t *testing.T, opts ...Option) (*Persistence, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return NewPersistence(client, opts...), mr
}

func TestPersistence_HealthCheck(t *testing.T) {
	store, mr := setupRedisPersistence(t)

	assert.NoError(t, store.HealthCheck(t.Context()))

	mr.Close()
	assert.Error(t, store.HealthCheck(t.Context()))
}

func TestNewPersistenceFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewPersistenceFromURL(t.Context(), "redis://"+mr.Addr()+"/0", WithPrefix("test"))
	require.NoError(t, err)

	defer func() { _ = store.Close(t.Context()) }()

	require.NoError(t, store.WorkStateRepository().Save(t.Context(), &models.WorkState{}))
	assert.True(t, mr.Exists("test:work-state"))

	_, err = NewPersistenceFromURL(t.Context(), "not a url")
	assert.Error(t, err)
}

func TestWorkflowRepository(t *testing.T) {
	store, _ := setupRedisPersistence(t)
	repo := store.WorkflowRepository()
	ctx := t.Context()

	_, err := repo.GetByName(ctx, "ship")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	for _, name := range []string{"review", "ship"} {
		require.NoError(t, repo.Save(ctx, &models.WorkflowDefinition{
			Name:  name,
			Steps: []*models.Step{{ID: "a", Skill: "x"}, {ID: "b", Skill: "y", Needs: []string{"a"}}},
		}))
	}

	definition, err := repo.GetByName(ctx, "ship")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, definition.Steps[1].Needs)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "review", all[0].Name)
	assert.Equal(t, "ship", all[1].Name)

	err = repo.Save(ctx, &models.WorkflowDefinition{
		Name:  "dup",
		Steps: []*models.Step{{ID: "a", Skill: "x"}, {ID: "a", Skill: "x"}},
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicateStep)
}

func TestRunLogRepository(t *testing.T) {
	store, mr := setupRedisPersistence(t)
	runLog := store.RunLogRepository()
	ctx := t.Context()

	_, err := runLog.LatestRun(ctx, "ship")
	assert.ErrorIs(t, err, persistence.ErrRunNotFound)

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)

	entries := []*models.RunEntry{
		{RunID: "run-1", WorkflowName: "ship", StepID: "a", Status: models.RunEntryStatusStarted, StartedAt: started},
		{RunID: "run-1", WorkflowName: "ship", StepID: "a", Status: models.RunEntryStatusCompleted, StartedAt: started, CompletedAt: &completed},
		{RunID: "run-1", WorkflowName: "ship", StepID: "b", Status: models.RunEntryStatusStarted, StartedAt: completed},
		{RunID: "run-1", WorkflowName: "ship", StepID: "a", Status: models.RunEntryStatusCompleted, StartedAt: started, CompletedAt: &completed},
	}

	for _, entry := range entries {
		require.NoError(t, runLog.Append(ctx, entry))
	}

	assert.True(t, mr.Exists("stepflow:run:run-1"))

	stored, err := runLog.Entries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, "b", stored[2].StepID)

	steps, err := runLog.CompletedSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, steps)

	latest, err := runLog.LatestRun(ctx, "ship")
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.RunID)
	assert.True(t, completed.Equal(latest.LastEntryAt))

	none, err := runLog.Entries(ctx, "run-404")
	require.NoError(t, err)
	assert.Empty(t, none)

	err = runLog.Append(ctx, &models.RunEntry{RunID: "run-2", WorkflowName: "ship", StepID: "a", Status: "bogus"})
	assert.ErrorIs(t, err, persistence.ErrInvalidRunEntry)
}

func TestWorkStateRepository(t *testing.T) {
	store, _ := setupRedisPersistence(t)
	workState := store.WorkStateRepository()
	ctx := t.Context()

	state, err := workState.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)

	pointer := &models.WorkflowPointer{Name: "ship", CurrentStep: "b", CompletedSteps: []string{"a"}, RunID: "run-1"}
	require.NoError(t, workState.Save(ctx, &models.WorkState{Workflow: pointer}))

	state, err = workState.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, pointer, state.Workflow)
}
