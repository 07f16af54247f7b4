// Package file provides file-based persistence for workflow definitions, the
// run log and the work state.
//
// Layout under the root directory:
//
//	workflows/<name>.yaml   workflow definitions (.yaml, .yml or .json)
//	runs/run-log.jsonl      append-only run log, one JSON entry per line
//	work-state.json         work state document
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/stepflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	runLogRepo    *RunLogRepository
	workStateRepo *WorkStateRepository
}

// NewPersistence creates a new instance of Persistence with the specified root
// directory. A "file://" prefix is accepted.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot),
		runLogRepo:    NewRunLogRepository(cleanRoot),
		workStateRepo: NewWorkStateRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists and is a directory.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.root)
	if err != nil {
		return fmt.Errorf("file persistence root %s: %w", fp.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file persistence root %s is not a directory", fp.root)
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) RunLogRepository() persistence.RunLogRepository {
	return fp.runLogRepo
}

func (fp *Persistence) WorkStateRepository() persistence.WorkStateRepository {
	return fp.workStateRepo
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	return nil
}

const lockRetryDelay = 50 * time.Millisecond
