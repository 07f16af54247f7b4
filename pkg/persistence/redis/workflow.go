package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

type WorkflowRepository struct {
	client *goredis.Client
	key    string
	logger *slog.Logger
}

func (r *WorkflowRepository) GetByName(ctx context.Context, name string) (*models.WorkflowDefinition, error) {
	data, err := r.client.HGet(ctx, r.key, name).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewWorkflowError("GetByName", name, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get workflow %s: %w", name, err)
	}

	var definition models.WorkflowDefinition

	err = json.Unmarshal(data, &definition)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByName", name, fmt.Errorf("%w: %w", persistence.ErrInvalidDefinition, err))
	}

	return &definition, nil
}

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	documents, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	definitions := make([]*models.WorkflowDefinition, 0, len(documents))

	for name, document := range documents {
		var definition models.WorkflowDefinition

		err := json.Unmarshal([]byte(document), &definition)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping undecodable workflow", "workflow_name", name, "error", err)

			continue
		}

		definitions = append(definitions, &definition)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})

	return definitions, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	err := persistence.CheckDuplicateSteps("Save", definition)
	if err != nil {
		return err
	}

	data, err := json.Marshal(definition)
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", definition.Name, err)
	}

	err = r.client.HSet(ctx, r.key, definition.Name, data).Err()
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", definition.Name, err)
	}

	return nil
}
