// Package persistence provides the storage abstraction for workflow definitions, the run log and the work state.
package persistence

import (
	"context"

	"github.com/dukex/stepflow/pkg/models"
)

// Persistence bundles the repositories a runner needs from one backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	RunLogRepository() RunLogRepository
	WorkStateRepository() WorkStateRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions keyed by name.
type WorkflowRepository interface {
	// GetByName returns ErrWorkflowNotFound when no definition has the name.
	GetByName(ctx context.Context, name string) (*models.WorkflowDefinition, error)
	GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error)
	// Save rejects definitions that declare a step id twice with ErrDuplicateStep.
	Save(ctx context.Context, definition *models.WorkflowDefinition) error
}

// RunLogRepository is the append-only run log. Entries are never updated.
type RunLogRepository interface {
	Append(ctx context.Context, entry *models.RunEntry) error
	// CompletedSteps returns the distinct step ids with a completed entry.
	CompletedSteps(ctx context.Context, runID string) ([]string, error)
	// LatestRun returns the run with the most recent entry for the workflow,
	// or ErrRunNotFound.
	LatestRun(ctx context.Context, workflowName string) (*models.RunSummary, error)
	// Entries returns every entry of a run in append order.
	Entries(ctx context.Context, runID string) ([]*models.RunEntry, error)
}

// WorkStateRepository reads and rewrites the whole work state document.
type WorkStateRepository interface {
	// Read returns nil without error when no document has been written yet.
	Read(ctx context.Context) (*models.WorkState, error)
	Save(ctx context.Context, state *models.WorkState) error
}
