package workflow

import (
	"context"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// Repository is the read side over stored definitions used by the API and CLI.
type Repository struct {
	persistence persistence.Persistence
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	definitions, err := r.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return make([]*models.WorkflowDefinition, 0), err
	}

	return definitions, nil
}

func (r *Repository) FetchByName(ctx context.Context, name string) (*models.WorkflowDefinition, error) {
	definition, err := r.persistence.WorkflowRepository().GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if definition == nil {
		return nil, persistence.NewWorkflowError("FetchByName", name, persistence.ErrWorkflowNotFound)
	}

	return definition, nil
}

// Names returns the names of every stored definition.
func (r *Repository) Names(ctx context.Context) ([]string, error) {
	definitions, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(definitions))
	for _, definition := range definitions {
		names = append(names, definition.Name)
	}

	return names, nil
}
