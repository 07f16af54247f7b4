package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

type RunLogRepository struct {
	client *goredis.Client
	prefix string
}

func (r *RunLogRepository) runKey(runID string) string {
	return r.prefix + ":run:" + runID
}

func (r *RunLogRepository) latestKey(workflowName string) string {
	return r.prefix + ":latest:" + workflowName
}

// Append pushes the entry and moves the workflow's latest-run marker in one
// MULTI/EXEC transaction.
func (r *RunLogRepository) Append(ctx context.Context, entry *models.RunEntry) error {
	err := persistence.CheckRunEntry("Append", entry)
	if err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode run entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, r.runKey(entry.RunID), data)
		pipe.Set(ctx, r.latestKey(entry.WorkflowName), entry.RunID, 0)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append run entry: %w", err)
	}

	return nil
}

func (r *RunLogRepository) Entries(ctx context.Context, runID string) ([]*models.RunEntry, error) {
	documents, err := r.client.LRange(ctx, r.runKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", runID, err)
	}

	entries := make([]*models.RunEntry, 0, len(documents))

	for _, document := range documents {
		var entry models.RunEntry

		err := json.Unmarshal([]byte(document), &entry)
		if err != nil {
			return nil, fmt.Errorf("failed to decode run entry of %s: %w", runID, err)
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}

func (r *RunLogRepository) CompletedSteps(ctx context.Context, runID string) ([]string, error) {
	entries, err := r.Entries(ctx, runID)
	if err != nil {
		return nil, err
	}

	return models.CompletedStepIDs(entries), nil
}

func (r *RunLogRepository) LatestRun(ctx context.Context, workflowName string) (*models.RunSummary, error) {
	runID, err := r.client.Get(ctx, r.latestKey(workflowName)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewRunError("LatestRun", workflowName, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read latest run of %s: %w", workflowName, err)
	}

	summary := &models.RunSummary{RunID: runID, WorkflowName: workflowName}

	last, err := r.client.LIndex(ctx, r.runKey(runID), -1).Bytes()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to read last entry of %s: %w", runID, err)
	}

	if len(last) > 0 {
		var entry models.RunEntry

		if json.Unmarshal(last, &entry) == nil {
			summary.LastEntryAt = entry.StartedAt
			if entry.CompletedAt != nil {
				summary.LastEntryAt = *entry.CompletedAt
			}
		}
	}

	return summary, nil
}
