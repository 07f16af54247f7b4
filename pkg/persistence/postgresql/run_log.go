package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// RunLogRepository stores run entries in the append-only run_entries table.
// Append order is the seq column.
type RunLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunLogRepository(db *sql.DB, logger *slog.Logger) *RunLogRepository {
	return &RunLogRepository{db: db, logger: logger}
}

func (r *RunLogRepository) Append(ctx context.Context, entry *models.RunEntry) error {
	err := persistence.CheckRunEntry("Append", entry)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO run_entries (run_id, workflow_name, step_id, status, started_at, completed_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.RunID,
		entry.WorkflowName,
		entry.StepID,
		string(entry.Status),
		entry.StartedAt,
		entry.CompletedAt,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to append run entry: %w", err)
	}

	return nil
}

func (r *RunLogRepository) CompletedSteps(ctx context.Context, runID string) ([]string, error) {
	query := `
		SELECT step_id
		FROM run_entries
		WHERE run_id = $1 AND status = 'completed'
		GROUP BY step_id
		ORDER BY MIN(seq)
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed steps: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	completed := make([]string, 0)

	for rows.Next() {
		var stepID string

		err := rows.Scan(&stepID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completed step: %w", err)
		}

		completed = append(completed, stepID)
	}

	return completed, rows.Err()
}

func (r *RunLogRepository) LatestRun(ctx context.Context, workflowName string) (*models.RunSummary, error) {
	query := `
		SELECT run_id, COALESCE(completed_at, started_at)
		FROM run_entries
		WHERE workflow_name = $1
		ORDER BY seq DESC
		LIMIT 1
	`

	summary := &models.RunSummary{WorkflowName: workflowName}

	err := r.db.QueryRowContext(ctx, query, workflowName).Scan(&summary.RunID, &summary.LastEntryAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRunError("LatestRun", workflowName, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	return summary, nil
}

func (r *RunLogRepository) Entries(ctx context.Context, runID string) ([]*models.RunEntry, error) {
	query := `
		SELECT run_id, workflow_name, step_id, status, started_at, completed_at, error
		FROM run_entries
		WHERE run_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run entries: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]*models.RunEntry, 0)

	for rows.Next() {
		var (
			entry       models.RunEntry
			status      string
			completedAt sql.NullTime
			message     sql.NullString
		)

		err := rows.Scan(&entry.RunID, &entry.WorkflowName, &entry.StepID, &status, &entry.StartedAt, &completedAt, &message)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}

		entry.Status = models.RunEntryStatus(status)
		entry.StartedAt = entry.StartedAt.UTC()

		if completedAt.Valid {
			at := completedAt.Time.UTC()
			entry.CompletedAt = &at
		}

		if message.Valid {
			entry.Error = &message.String
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
