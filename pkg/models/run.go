package models

import "time"

// RunEntryStatus is the transition recorded by a run log entry.
type RunEntryStatus string

const (
	RunEntryStatusStarted   RunEntryStatus = "started"
	RunEntryStatusCompleted RunEntryStatus = "completed"
	RunEntryStatusFailed    RunEntryStatus = "failed"
)

// Valid reports whether the status is one of the known transitions.
func (s RunEntryStatus) Valid() bool {
	switch s {
	case RunEntryStatusStarted, RunEntryStatusCompleted, RunEntryStatusFailed:
		return true
	default:
		return false
	}
}

// RunEntry is one immutable record in the run log. The sequence of entries
// for a run is the only authority on which steps have completed.
type RunEntry struct {
	RunID        string         `json:"run_id"                 validate:"required"`
	WorkflowName string         `json:"workflow_name"          validate:"required"`
	StepID       string         `json:"step_id"                validate:"required"`
	Status       RunEntryStatus `json:"status"                 validate:"required,oneof=started completed failed"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Error        *string        `json:"error,omitempty"`
}

// RunSummary identifies a run found in the run log.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	WorkflowName string    `json:"workflow_name"`
	LastEntryAt  time.Time `json:"last_entry_at"`
}

// CompletedStepIDs returns the distinct step ids that have a completed entry,
// in the order they first completed.
func CompletedStepIDs(entries []*RunEntry) []string {
	seen := make(map[string]bool)
	completed := make([]string, 0)

	for _, entry := range entries {
		if entry.Status != RunEntryStatusCompleted || seen[entry.StepID] {
			continue
		}

		seen[entry.StepID] = true
		completed = append(completed, entry.StepID)
	}

	return completed
}
