package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/stepflow/pkg/models"
)

// WorkStateRepository keeps the single work state document in row id 1.
type WorkStateRepository struct {
	db *sql.DB
}

func NewWorkStateRepository(db *sql.DB) *WorkStateRepository {
	return &WorkStateRepository{db: db}
}

func (r *WorkStateRepository) Read(ctx context.Context) (*models.WorkState, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, "SELECT document FROM work_state WHERE id = 1").Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	var state models.WorkState

	err = json.Unmarshal(document, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to decode work state: %w", err)
	}

	return &state, nil
}

func (r *WorkStateRepository) Save(ctx context.Context, state *models.WorkState) error {
	document, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode work state: %w", err)
	}

	query := `
		INSERT INTO work_state (id, document, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, document)
	if err != nil {
		return fmt.Errorf("failed to save work state: %w", err)
	}

	return nil
}
