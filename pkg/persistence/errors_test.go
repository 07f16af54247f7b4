package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByName", "release", persistence.ErrWorkflowNotFound)
		runErr := persistence.NewRunError("LatestRun", "release", persistence.ErrRunNotFound)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsRunNotFound(runErr))
		assert.False(t, persistence.IsRunNotFound(workflowErr))

		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
		assert.True(t, errors.Is(runErr, persistence.ErrRunNotFound))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := &persistence.WorkflowError{Op: "Save", Workflow: "release", Err: persistence.ErrDuplicateStep, Message: "lint"}

		assert.Contains(t, err.Error(), "Save")
		assert.Contains(t, err.Error(), "release")
		assert.Contains(t, err.Error(), "lint")
		assert.Contains(t, err.Error(), "duplicate step id")
	})

	t.Run("run error contains context", func(t *testing.T) {
		err := persistence.NewRunError("Entries", "run-123", persistence.ErrRunNotFound)

		assert.Contains(t, err.Error(), "Entries")
		assert.Contains(t, err.Error(), "run-123")
		assert.Contains(t, err.Error(), "run not found")
	})
}

func TestCheckDuplicateSteps(t *testing.T) {
	t.Parallel()

	valid := &models.WorkflowDefinition{Name: "ok", Steps: []*models.Step{{ID: "a", Skill: "x"}, {ID: "b", Skill: "y"}}}
	require.NoError(t, persistence.CheckDuplicateSteps("Save", valid))

	duplicated := &models.WorkflowDefinition{Name: "dup", Steps: []*models.Step{{ID: "a", Skill: "x"}, {ID: "a", Skill: "y"}}}
	err := persistence.CheckDuplicateSteps("Save", duplicated)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDuplicateStep)
	assert.True(t, persistence.IsInvalidDefinition(err))
	assert.Contains(t, err.Error(), "dup")
}

func TestCheckRunEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry *models.RunEntry
		valid bool
	}{
		{name: "complete entry", entry: &models.RunEntry{RunID: "r", WorkflowName: "w", StepID: "s", Status: models.RunEntryStatusStarted}, valid: true},
		{name: "nil entry", entry: nil},
		{name: "missing run id", entry: &models.RunEntry{WorkflowName: "w", StepID: "s", Status: models.RunEntryStatusStarted}},
		{name: "missing workflow", entry: &models.RunEntry{RunID: "r", StepID: "s", Status: models.RunEntryStatusStarted}},
		{name: "unknown status", entry: &models.RunEntry{RunID: "r", WorkflowName: "w", StepID: "s", Status: "skipped"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := persistence.CheckRunEntry("Append", tt.entry)
			if tt.valid {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, persistence.ErrInvalidRunEntry)
		})
	}
}
