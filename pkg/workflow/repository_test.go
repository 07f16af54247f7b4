package workflow

import (
	"testing"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepository(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	repo := NewRepository(store)

	assert.NotNil(t, repo)
	assert.Equal(t, store, repo.persistence)
}

func TestRepository_HealthCheck(t *testing.T) {
	message, ok := NewRepository(file.NewPersistence(t.TempDir())).HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, ok = NewRepository(file.NewPersistence("/definitely/not/here")).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Contains(t, message, "unhealthy")

	_, ok = NewRepository(nil).HealthCheck(t.Context())
	assert.False(t, ok)
}

func TestRepository_Fetch(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	repo := NewRepository(store)

	require.NoError(t, store.WorkflowRepository().Save(t.Context(), shipDefinition()))
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), &models.WorkflowDefinition{Name: "abc", Steps: abcDefinition().Steps}))

	names, err := repo.Names(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "ship"}, names)

	definition, err := repo.FetchByName(t.Context(), "ship")
	require.NoError(t, err)
	assert.Equal(t, []string{"lint", "test", "deploy"}, definition.StepIDs())

	_, err = repo.FetchByName(t.Context(), "ghost")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
