package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const selectWorkflowColumns = `
		SELECT
			name
		  , version
		  , description
		  , extends
		  , steps
		FROM workflows
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		definition models.WorkflowDefinition
		extends    sql.NullString
		steps      []byte
	)

	err := row.Scan(&definition.Name, &definition.Version, &definition.Description, &extends, &steps)
	if err != nil {
		return nil, err
	}

	definition.Extends = extends.String

	err = json.Unmarshal(steps, &definition.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to decode steps of workflow %s: %w", definition.Name, err)
	}

	return &definition, nil
}

// GetAll returns all workflows ordered by name.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	rows, err := r.db.QueryContext(ctx, selectWorkflowColumns+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	definitions := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		definition, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		definitions = append(definitions, definition)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	return definitions, nil
}

// GetByName returns the workflow or ErrWorkflowNotFound.
func (r *WorkflowRepository) GetByName(ctx context.Context, name string) (*models.WorkflowDefinition, error) {
	definition, err := scanWorkflow(r.db.QueryRowContext(ctx, selectWorkflowColumns+" WHERE name = $1", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("GetByName", name, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", name, err)
	}

	return definition, nil
}

// Save inserts or replaces a workflow.
func (r *WorkflowRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	err := persistence.CheckDuplicateSteps("Save", definition)
	if err != nil {
		return err
	}

	steps := definition.Steps
	if steps == nil {
		steps = []*models.Step{}
	}

	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}

	var extends sql.NullString
	if definition.Extends != "" {
		extends = sql.NullString{String: definition.Extends, Valid: true}
	}

	query := `
		INSERT INTO workflows (name, version, description, extends, steps)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			version = EXCLUDED.version,
			description = EXCLUDED.description,
			extends = EXCLUDED.extends,
			steps = EXCLUDED.steps,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, definition.Name, definition.Version, definition.Description, extends, stepsJSON)
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", definition.Name, err)
	}

	r.logger.DebugContext(ctx, "Saved workflow definition", "workflow_name", definition.Name)

	return nil
}
