package workflow

import (
	"context"
	"errors"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// DefaultMaxExtendsDepth bounds the number of definitions in an extends chain.
const DefaultMaxExtendsDepth = 10

// Loader returns the definition with the given name. A nil definition or an
// error matching persistence.ErrWorkflowNotFound means the name is unknown.
type Loader func(ctx context.Context, name string) (*models.WorkflowDefinition, error)

// Resolution is a flattened definition plus the chain it was built from,
// ordered root first.
type Resolution struct {
	Resolved *models.WorkflowDefinition
	Chain    []string
}

// Resolver flattens extends chains.
type Resolver struct {
	loader   Loader
	maxDepth int
}

// NewResolver creates a resolver. A maxDepth below one uses DefaultMaxExtendsDepth.
func NewResolver(loader Loader, maxDepth int) *Resolver {
	if maxDepth < 1 {
		maxDepth = DefaultMaxExtendsDepth
	}

	return &Resolver{loader: loader, maxDepth: maxDepth}
}

// Resolve walks the extends chain of definition and merges the step lists from
// the root ancestor down to definition. A step declared again by a descendant
// replaces the ancestor's step entirely. Failures are returned as
// *CompositionError; the input definition is never modified.
func (r *Resolver) Resolve(ctx context.Context, definition *models.WorkflowDefinition) (*Resolution, error) {
	if definition.Extends == "" {
		return &Resolution{Resolved: definition, Chain: []string{definition.Name}}, nil
	}

	chain := []*models.WorkflowDefinition{definition}
	names := []string{definition.Name}
	visited := map[string]bool{definition.Name: true}

	current := definition
	for current.Extends != "" {
		parentName := current.Extends

		if visited[parentName] {
			return nil, &CompositionError{
				Kind:     ErrCircularExtends,
				Workflow: definition.Name,
				Parent:   parentName,
				Chain:    append(names, parentName),
			}
		}

		parent, err := r.loader(ctx, parentName)
		if err != nil && !errors.Is(err, persistence.ErrWorkflowNotFound) {
			return nil, &CompositionError{
				Kind:     ErrLoadParent,
				Workflow: definition.Name,
				Parent:   parentName,
				Chain:    names,
				Err:      err,
			}
		}

		if parent == nil {
			return nil, &CompositionError{
				Kind:     ErrMissingParent,
				Workflow: definition.Name,
				Parent:   parentName,
				Chain:    names,
			}
		}

		visited[parentName] = true
		chain = append(chain, parent)
		names = append(names, parentName)

		if len(chain) > r.maxDepth {
			return nil, &CompositionError{
				Kind:     ErrMaxDepthExceeded,
				Workflow: definition.Name,
				Parent:   parentName,
				Chain:    names,
				MaxDepth: r.maxDepth,
			}
		}

		current = parent
	}

	rootFirst := make([]string, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		rootFirst = append(rootFirst, names[i])
	}

	resolved := &models.WorkflowDefinition{
		Name:        definition.Name,
		Version:     definition.Version,
		Description: definition.Description,
		Steps:       mergeSteps(chain),
	}

	return &Resolution{Resolved: resolved, Chain: rootFirst}, nil
}

// mergeSteps merges leaf-first definitions root to leaf into an id-keyed map
// that keeps first-insertion order.
func mergeSteps(leafFirst []*models.WorkflowDefinition) []*models.Step {
	var order []string

	byID := make(map[string]*models.Step)

	for i := len(leafFirst) - 1; i >= 0; i-- {
		for _, step := range leafFirst[i].Steps {
			if _, exists := byID[step.ID]; !exists {
				order = append(order, step.ID)
			}

			byID[step.ID] = step.Clone()
		}
	}

	steps := make([]*models.Step, 0, len(order))
	for _, id := range order {
		steps = append(steps, byID[id])
	}

	return steps
}
