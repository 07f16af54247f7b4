// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/workflow"
)

// StartRunRequest represents the request body for starting a run.
type StartRunRequest struct {
	Workflow string `json:"workflow" validate:"required"`
}

// FailStepRequest represents the request body for recording a failed step.
type FailStepRequest struct {
	Error string `json:"error" validate:"required"`
}

// WorkflowSummary is one entry of the workflow listing.
type WorkflowSummary struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description,omitempty"`
	Extends     string `json:"extends,omitempty"`
	Steps       int    `json:"steps"`
}

// WorkflowResponse is a definition as the runner would execute it.
type WorkflowResponse struct {
	Name       string                     `json:"name"`
	Chain      []string                   `json:"chain"`
	Resolved   *models.WorkflowDefinition `json:"resolved,omitempty"`
	Validation workflow.ValidationResult  `json:"validation"`
}

// TransformWorkflowSummary reduces a stored definition to its listing entry.
func TransformWorkflowSummary(definition *models.WorkflowDefinition) WorkflowSummary {
	return WorkflowSummary{
		Name:        definition.Name,
		Version:     definition.Version,
		Description: definition.Description,
		Extends:     definition.Extends,
		Steps:       len(definition.Steps),
	}
}

// TransformInspection converts a runner inspection into its response.
func TransformInspection(inspection *workflow.Inspection) WorkflowResponse {
	chain := inspection.Chain
	if chain == nil {
		chain = []string{}
	}

	return WorkflowResponse{
		Name:       inspection.Name,
		Chain:      chain,
		Resolved:   inspection.Resolved,
		Validation: inspection.Validation,
	}
}
