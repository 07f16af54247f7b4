package models

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowDefinition_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name       string
		definition *WorkflowDefinition
		wantField  string
	}{
		{
			name: "valid definition",
			definition: &WorkflowDefinition{
				Name:  "release",
				Steps: []*Step{{ID: "lint", Skill: "lint"}, {ID: "test", Skill: "go-test", Needs: []string{"lint"}}},
			},
		},
		{
			name:       "missing name",
			definition: &WorkflowDefinition{Steps: []*Step{{ID: "lint", Skill: "lint"}}},
			wantField:  "Name",
		},
		{
			name:       "step without skill",
			definition: &WorkflowDefinition{Name: "release", Steps: []*Step{{ID: "lint"}}},
			wantField:  "Skill",
		},
		{
			name:       "empty need",
			definition: &WorkflowDefinition{Name: "release", Steps: []*Step{{ID: "lint", Skill: "lint", Needs: []string{""}}}},
			wantField:  "Needs[0]",
		},
		{
			name:       "negative version",
			definition: &WorkflowDefinition{Name: "release", Version: -1},
			wantField:  "Version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.definition)
			if tt.wantField == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)

			var validationErrors validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrors))

			found := false
			for _, fieldErr := range validationErrors {
				if fieldErr.Field() == tt.wantField {
					found = true
				}
			}

			assert.True(t, found, "expected a validation error on %s, got %v", tt.wantField, err)
		})
	}
}

func TestWorkflowDefinition_CloneIsDeep(t *testing.T) {
	original := &WorkflowDefinition{
		Name:    "child",
		Version: 2,
		Extends: "parent",
		Steps:   []*Step{{ID: "build", Skill: "make", Needs: []string{"fetch"}}},
	}

	clone := original.Clone()
	clone.Steps[0].Skill = "bazel"
	clone.Steps[0].Needs[0] = "checkout"
	clone.Extends = ""

	assert.Equal(t, "make", original.Steps[0].Skill)
	assert.Equal(t, []string{"fetch"}, original.Steps[0].Needs)
	assert.Equal(t, "parent", original.Extends)
}

func TestWorkflowDefinition_StepLookups(t *testing.T) {
	definition := &WorkflowDefinition{
		Name: "deploy",
		Steps: []*Step{
			{ID: "a", Skill: "x"},
			{ID: "b", Skill: "y"},
			{ID: "a", Skill: "z"},
			{ID: "c", Skill: "w"},
			{ID: "b", Skill: "v"},
		},
	}

	assert.Equal(t, []string{"a", "b", "a", "c", "b"}, definition.StepIDs())
	assert.Equal(t, []string{"a", "b"}, definition.DuplicateStepIDs())

	step, ok := definition.StepByID("c")
	require.True(t, ok)
	assert.Equal(t, "w", step.Skill)

	_, ok = definition.StepByID("missing")
	assert.False(t, ok)
}

func TestCompletedStepIDs(t *testing.T) {
	failure := "boom"
	entries := []*RunEntry{
		{StepID: "a", Status: RunEntryStatusStarted},
		{StepID: "a", Status: RunEntryStatusCompleted},
		{StepID: "b", Status: RunEntryStatusStarted},
		{StepID: "b", Status: RunEntryStatusFailed, Error: &failure},
		{StepID: "c", Status: RunEntryStatusStarted},
		{StepID: "c", Status: RunEntryStatusCompleted},
		{StepID: "a", Status: RunEntryStatusCompleted},
	}

	assert.Equal(t, []string{"a", "c"}, CompletedStepIDs(entries))
	assert.Empty(t, CompletedStepIDs(nil))
}

func TestRunEntryStatus_Valid(t *testing.T) {
	assert.True(t, RunEntryStatusStarted.Valid())
	assert.True(t, RunEntryStatusCompleted.Valid())
	assert.True(t, RunEntryStatusFailed.Valid())
	assert.False(t, RunEntryStatus("cancelled").Valid())
}
