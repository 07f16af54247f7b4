// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/stepflow/pkg/models"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates no workflow definition has the given name.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRunNotFound indicates the run log has no entries for the given run or workflow.
	ErrRunNotFound = errors.New("run not found")

	// ErrDuplicateStep indicates a definition declares the same step id more than once.
	ErrDuplicateStep = errors.New("duplicate step id")

	// ErrInvalidDefinition indicates a definition document failed to decode or validate.
	ErrInvalidDefinition = errors.New("invalid workflow definition")

	// ErrInvalidRunEntry indicates a run entry is missing required fields.
	ErrInvalidRunEntry = errors.New("invalid run entry")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op       string // Operation being performed (e.g., "GetByName", "Save")
	Workflow string // Workflow name if applicable
	Err      error  // Underlying error
	Message  string // Additional context message
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workflow %s: %s (%v)", e.Op, e.Workflow, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.Workflow, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflow string, err error) *WorkflowError {
	return &WorkflowError{
		Op:       op,
		Workflow: workflow,
		Err:      err,
	}
}

// RunError wraps run log errors with additional context.
type RunError struct {
	Op    string // Operation being performed
	RunID string // Run ID, or workflow name for LatestRun
	Err   error  // Underlying error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunError creates a new run error with context.
func NewRunError(op, runID string, err error) *RunError {
	return &RunError{
		Op:    op,
		RunID: runID,
		Err:   err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsInvalidDefinition checks if an error indicates a rejected definition.
func IsInvalidDefinition(err error) bool {
	return errors.Is(err, ErrInvalidDefinition) || errors.Is(err, ErrDuplicateStep)
}

// CheckDuplicateSteps returns a WorkflowError wrapping ErrDuplicateStep when
// the definition declares a step id more than once.
func CheckDuplicateSteps(op string, definition *models.WorkflowDefinition) error {
	duplicates := definition.DuplicateStepIDs()
	if len(duplicates) == 0 {
		return nil
	}

	return &WorkflowError{
		Op:       op,
		Workflow: definition.Name,
		Err:      ErrDuplicateStep,
		Message:  strings.Join(duplicates, ", "),
	}
}

// CheckRunEntry validates the fields every store requires before appending.
func CheckRunEntry(op string, entry *models.RunEntry) error {
	if entry == nil || entry.RunID == "" || entry.WorkflowName == "" || entry.StepID == "" || !entry.Status.Valid() {
		runID := ""
		if entry != nil {
			runID = entry.RunID
		}

		return NewRunError(op, runID, ErrInvalidRunEntry)
	}

	return nil
}

// IsInvalidRunEntry checks if an error indicates a rejected run entry.
func IsInvalidRunEntry(err error) bool {
	return errors.Is(err, ErrInvalidRunEntry)
}
