package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(runID, workflowName, stepID string, status models.RunEntryStatus) *models.RunEntry {
	return &models.RunEntry{
		RunID:        runID,
		WorkflowName: workflowName,
		StepID:       stepID,
		Status:       status,
		StartedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunLogRepository_AppendAndCompletedSteps(t *testing.T) {
	repo := NewRunLogRepository(t.TempDir())
	ctx := context.Background()

	for _, e := range []*models.RunEntry{
		entry("run-1", "ship", "lint", models.RunEntryStatusStarted),
		entry("run-1", "ship", "lint", models.RunEntryStatusCompleted),
		entry("run-1", "ship", "test", models.RunEntryStatusStarted),
		entry("run-1", "ship", "test", models.RunEntryStatusFailed),
		entry("run-2", "ship", "lint", models.RunEntryStatusCompleted),
		entry("run-1", "ship", "lint", models.RunEntryStatusCompleted),
	} {
		require.NoError(t, repo.Append(ctx, e))
	}

	completed, err := repo.CompletedSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lint"}, completed)

	entries, err := repo.Entries(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, models.RunEntryStatusFailed, entries[3].Status)

	none, err := repo.CompletedSteps(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRunLogRepository_LatestRun(t *testing.T) {
	repo := NewRunLogRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.LatestRun(ctx, "ship")
	assert.True(t, persistence.IsRunNotFound(err))

	require.NoError(t, repo.Append(ctx, entry("run-1", "ship", "lint", models.RunEntryStatusStarted)))
	require.NoError(t, repo.Append(ctx, entry("run-2", "ship", "lint", models.RunEntryStatusStarted)))
	require.NoError(t, repo.Append(ctx, entry("run-3", "other", "lint", models.RunEntryStatusStarted)))

	latest, err := repo.LatestRun(ctx, "ship")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, "ship", latest.WorkflowName)
}

func TestRunLogRepository_RejectsInvalidEntries(t *testing.T) {
	repo := NewRunLogRepository(t.TempDir())

	err := repo.Append(context.Background(), entry("", "ship", "lint", models.RunEntryStatusStarted))
	assert.ErrorIs(t, err, persistence.ErrInvalidRunEntry)

	err = repo.Append(context.Background(), entry("run-1", "ship", "lint", "skipped"))
	assert.ErrorIs(t, err, persistence.ErrInvalidRunEntry)
}

func TestRunLogRepository_SkipsTruncatedLine(t *testing.T) {
	root := t.TempDir()
	repo := NewRunLogRepository(root)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, entry("run-1", "ship", "lint", models.RunEntryStatusCompleted)))

	f, err := os.OpenFile(filepath.Join(root, "runs", "run-log.jsonl"), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"run_id":"run-1","workflow_name":"ship","step_id":"te`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	completed, err := repo.CompletedSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lint"}, completed)
}
