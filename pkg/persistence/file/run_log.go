package file

import (
	"bufio"
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
	"github.com/dukex/stepflow/pkg/persistence"
)

// RunLogRepository keeps every run entry in one JSON-lines file. Lines are
// only ever appended.
type RunLogRepository struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewRunLogRepository creates a run log at <root>/runs/run-log.jsonl.
func NewRunLogRepository(root string) *RunLogRepository {
	return &RunLogRepository{
		path:   filepath.Join(root, "runs", "run-log.jsonl"),
		logger: log.WithModule("file_run_log"),
	}
}

func (rr *RunLogRepository) Append(_ context.Context, entry *models.RunEntry) error {
	if err := persistence.CheckRunEntry("Append", entry); err != nil {
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode run entry: %w", err)
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(rr.path), 0o750); err != nil {
		return fmt.Errorf("failed to create run log directory: %w", err)
	}

	f, err := os.OpenFile(rr.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to append run entry: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to sync run log: %w", err)
	}

	return f.Close()
}

func (rr *RunLogRepository) CompletedSteps(ctx context.Context, runID string) ([]string, error) {
	entries, err := rr.Entries(ctx, runID)
	if err != nil {
		return nil, err
	}

	return models.CompletedStepIDs(entries), nil
}

// LatestRun returns the run of the workflow whose entry was appended last.
func (rr *RunLogRepository) LatestRun(_ context.Context, workflowName string) (*models.RunSummary, error) {
	var latest *models.RunSummary

	err := rr.scan(func(entry *models.RunEntry) {
		if entry.WorkflowName != workflowName {
			return
		}

		at := entry.StartedAt
		if entry.CompletedAt != nil {
			at = *entry.CompletedAt
		}

		latest = &models.RunSummary{RunID: entry.RunID, WorkflowName: workflowName, LastEntryAt: at}
	})
	if err != nil {
		return nil, err
	}

	if latest == nil {
		return nil, persistence.NewRunError("LatestRun", workflowName, persistence.ErrRunNotFound)
	}

	return latest, nil
}

// Entries returns the run's entries in append order, or an empty slice.
func (rr *RunLogRepository) Entries(_ context.Context, runID string) ([]*models.RunEntry, error) {
	entries := make([]*models.RunEntry, 0)

	err := rr.scan(func(entry *models.RunEntry) {
		if entry.RunID == runID {
			entries = append(entries, entry)
		}
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// scan calls fn for every well-formed line. A truncated last line left by a
// crash mid-append is skipped.
func (rr *RunLogRepository) scan(fn func(entry *models.RunEntry)) error {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	f, err := os.Open(rr.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry models.RunEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			rr.logger.Warn("Skipping malformed run log line", "path", rr.path, "line", lineNumber, "error", err)

			continue
		}

		fn(&entry)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read run log: %w", err)
	}

	return nil
}
