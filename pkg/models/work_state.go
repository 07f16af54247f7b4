package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	workStateWorkflowKey  = "workflow"
	workStateUpdatedAtKey = "updated_at"
)

// WorkflowPointer is the resumption hint for the active workflow. It is
// advisory: completion is always recomputed from the run log.
type WorkflowPointer struct {
	Name           string   `json:"name"`
	CurrentStep    string   `json:"current_step"`
	CompletedSteps []string `json:"completed_steps"`
	RunID          string   `json:"run_id,omitempty"`
}

// Clone returns a deep copy of the pointer.
func (p *WorkflowPointer) Clone() *WorkflowPointer {
	if p == nil {
		return nil
	}

	clone := *p
	clone.CompletedSteps = append(make([]string, 0, len(p.CompletedSteps)), p.CompletedSteps...)

	return &clone
}

// WorkState is the mutable, whole-document resumption record. Keys other than
// the workflow pointer belong to other tools and are preserved untouched.
type WorkState struct {
	Workflow  *WorkflowPointer
	UpdatedAt time.Time
	Fields    map[string]json.RawMessage
}

// MarshalJSON encodes the document with sorted top-level keys so rewrites are
// byte-stable.
func (ws WorkState) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(ws.Fields)+2)
	for key, value := range ws.Fields {
		doc[key] = value
	}

	doc[workStateWorkflowKey] = ws.Workflow
	if !ws.UpdatedAt.IsZero() {
		doc[workStateUpdatedAtKey] = ws.UpdatedAt.UTC()
	}

	return json.Marshal(doc)
}

// UnmarshalJSON decodes the document, keeping unknown keys in Fields.
func (ws *WorkState) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return fmt.Errorf("failed to decode work state: %w", err)
	}

	*ws = WorkState{}

	if raw, ok := doc[workStateWorkflowKey]; ok {
		delete(doc, workStateWorkflowKey)

		err := json.Unmarshal(raw, &ws.Workflow)
		if err != nil {
			return fmt.Errorf("failed to decode workflow pointer: %w", err)
		}
	}

	if raw, ok := doc[workStateUpdatedAtKey]; ok {
		delete(doc, workStateUpdatedAtKey)

		err := json.Unmarshal(raw, &ws.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to decode updated_at: %w", err)
		}
	}

	if len(doc) > 0 {
		ws.Fields = doc
	}

	return nil
}
