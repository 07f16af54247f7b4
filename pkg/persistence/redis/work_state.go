package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/stepflow/pkg/models"
	goredis "github.com/redis/go-redis/v9"
)

type WorkStateRepository struct {
	client *goredis.Client
	key    string
}

func (r *WorkStateRepository) Read(ctx context.Context) (*models.WorkState, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	var state models.WorkState

	err = json.Unmarshal(data, &state)
	if err != nil {
		return nil, err
	}

	return &state, nil
}

func (r *WorkStateRepository) Save(ctx context.Context, state *models.WorkState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode work state: %w", err)
	}

	err = r.client.Set(ctx, r.key, data, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to save work state: %w", err)
	}

	return nil
}
