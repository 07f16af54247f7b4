package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, root, file, content string) {
	t.Helper()

	dir := filepath.Join(root, "workflows")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
}

func TestWorkflowRepository_GetByName_YAML(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "ship.yaml", `
name: ship
version: 2
extends: base
steps:
  - id: lint
    skill: golint
  - id: test
    skill: gotest
    needs: [lint]
`)

	repo := NewWorkflowRepository(root)

	definition, err := repo.GetByName(context.Background(), "ship")
	require.NoError(t, err)

	assert.Equal(t, "ship", definition.Name)
	assert.Equal(t, 2, definition.Version)
	assert.Equal(t, "base", definition.Extends)
	require.Len(t, definition.Steps, 2)
	assert.Equal(t, []string{"lint"}, definition.Steps[1].Needs)
}

func TestWorkflowRepository_GetByName_JSON(t *testing.T) {
	root := t.TempDir()
	writeDefinition(t, root, "base.json", `{"name":"base","version":1,"steps":[{"id":"lint","skill":"golint","needs":[]}]}`)

	definition, err := NewWorkflowRepository(root).GetByName(context.Background(), "base")
	require.NoError(t, err)

	assert.Equal(t, []string{"lint"}, definition.StepIDs())
	assert.Empty(t, definition.Extends)
}

func TestWorkflowRepository_GetByName_NotFound(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	for _, name := range []string{"missing", "../escape", ""} {
		_, err := repo.GetByName(context.Background(), name)
		assert.True(t, persistence.IsWorkflowNotFound(err), name)
	}
}

func TestWorkflowRepository_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		isDup   bool
	}{
		{
			name:    "missing skill",
			content: "name: broken\nsteps:\n  - id: lint\n",
		},
		{
			name:    "negative version",
			content: "name: broken\nversion: -1\nsteps: []\n",
		},
		{
			name:    "mismatched name",
			content: "name: other\nsteps: []\n",
		},
		{
			name:    "not yaml",
			content: "name: [unterminated\n",
		},
		{
			name:    "duplicate step",
			content: "name: broken\nsteps:\n  - {id: a, skill: s}\n  - {id: a, skill: t}\n",
			isDup:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeDefinition(t, root, "broken.yaml", tt.content)

			_, err := NewWorkflowRepository(root).GetByName(context.Background(), "broken")
			require.Error(t, err)
			assert.True(t, persistence.IsInvalidDefinition(err))

			if tt.isDup {
				assert.ErrorIs(t, err, persistence.ErrDuplicateStep)
			}
		})
	}
}

func TestWorkflowRepository_SaveAndGetAll(t *testing.T) {
	root := t.TempDir()
	repo := NewWorkflowRepository(root)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.WorkflowDefinition{
		Name:  "zeta",
		Steps: []*models.Step{{ID: "a", Skill: "s"}},
	}))
	require.NoError(t, repo.Save(ctx, &models.WorkflowDefinition{
		Name:    "alpha",
		Version: 3,
		Steps:   []*models.Step{{ID: "a", Skill: "s"}, {ID: "b", Skill: "s", Needs: []string{"a"}}},
	}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, 3, all[0].Version)
	assert.Equal(t, "zeta", all[1].Name)

	err = repo.Save(ctx, &models.WorkflowDefinition{
		Name:  "dup",
		Steps: []*models.Step{{ID: "a", Skill: "s"}, {ID: "a", Skill: "s"}},
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicateStep)
}

func TestWorkflowRepository_GetAll_EmptyRoot(t *testing.T) {
	all, err := NewWorkflowRepository(t.TempDir()).GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
