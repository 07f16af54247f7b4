package workflow

import (
	"fmt"
	"strings"

	"github.com/dukex/stepflow/pkg/graph"
	"github.com/dukex/stepflow/pkg/models"
)

// SkillChecker reports whether a skill with the given name is available.
type SkillChecker func(name string) bool

// ValidationResult reports every problem found in a definition. ExecutionOrder
// is nil when the steps contain a cycle.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	ExecutionOrder []string `json:"execution_order"`
}

// Validate checks a resolved definition for unknown step references, unknown
// skills and dependency cycles. All problems are collected. A nil skillExists
// accepts every skill.
func Validate(definition *models.WorkflowDefinition, skillExists SkillChecker) ValidationResult {
	errs := make([]string, 0)

	declared := make(map[string]bool, len(definition.Steps))
	for _, step := range definition.Steps {
		declared[step.ID] = true
	}

	for _, step := range definition.Steps {
		for _, needed := range step.Needs {
			if !declared[needed] {
				errs = append(errs, fmt.Sprintf("Step %q needs unknown step %q", step.ID, needed))
			}
		}
	}

	if skillExists != nil {
		for _, step := range definition.Steps {
			if !skillExists(step.Skill) {
				errs = append(errs, fmt.Sprintf("Step %q references unknown skill %q", step.ID, step.Skill))
			}
		}
	}

	result := graph.FromSteps(definition.Steps).DetectCycles()
	if result.HasCycle {
		errs = append(errs, "Circular dependency detected: "+strings.Join(result.Cycle, " -> "))
	}

	return ValidationResult{
		Valid:          len(errs) == 0,
		Errors:         errs,
		ExecutionOrder: result.TopologicalOrder,
	}
}

// executionOrder returns the topological order of the declared steps. Ids that
// are only referenced through needs are left out.
func executionOrder(definition *models.WorkflowDefinition) ([]string, error) {
	result := graph.FromSteps(definition.Steps).DetectCycles()
	if result.HasCycle {
		return nil, fmt.Errorf("%w: %s", ErrCyclicDefinition, strings.Join(result.Cycle, " -> "))
	}

	declared := make(map[string]bool, len(definition.Steps))
	for _, step := range definition.Steps {
		declared[step.ID] = true
	}

	order := make([]string, 0, len(definition.Steps))

	for _, id := range result.TopologicalOrder {
		if declared[id] {
			order = append(order, id)
		}
	}

	return order, nil
}
