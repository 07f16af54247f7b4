package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/gofrs/flock"
)

// WorkStateRepository stores the work state as <root>/work-state.json. Writes
// are serialized within the process by a mutex and across processes by an OS
// lock on work-state.json.lock, then replace the file atomically.
type WorkStateRepository struct {
	path   string
	mutex  sync.Mutex
	lock   *flock.Flock
	logger *slog.Logger
}

// NewWorkStateRepository creates a new work state repository.
func NewWorkStateRepository(root string) *WorkStateRepository {
	path := filepath.Join(root, "work-state.json")

	return &WorkStateRepository{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: log.WithModule("file_work_state"),
	}
}

// Read returns nil when the document has not been written yet.
func (ws *WorkStateRepository) Read(_ context.Context) (*models.WorkState, error) {
	data, err := os.ReadFile(ws.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	var state models.WorkState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode work state %s: %w", ws.path, err)
	}

	return &state, nil
}

// Save rewrites the whole document with sorted keys.
func (ws *WorkStateRepository) Save(ctx context.Context, state *models.WorkState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode work state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(ws.path), 0o750); err != nil {
		return fmt.Errorf("failed to create work state directory: %w", err)
	}

	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	locked, err := ws.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock work state: %w", err)
	}

	if !locked {
		return fmt.Errorf("failed to lock work state %s", ws.path)
	}

	defer func() {
		if err := ws.lock.Unlock(); err != nil {
			ws.logger.Warn("Failed to unlock work state", "path", ws.path, "error", err)
		}
	}()

	if err := writeAtomic(ws.path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write work state: %w", err)
	}

	return nil
}
