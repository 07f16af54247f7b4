package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCircularExtends indicates an extends chain visits the same workflow twice.
	ErrCircularExtends = errors.New("circular extends chain")

	// ErrMissingParent indicates an extends chain names a workflow that does not exist.
	ErrMissingParent = errors.New("parent workflow not found")

	// ErrMaxDepthExceeded indicates an extends chain is longer than the configured limit.
	ErrMaxDepthExceeded = errors.New("extends chain exceeds max depth")

	// ErrLoadParent indicates the loader failed while walking an extends chain.
	ErrLoadParent = errors.New("failed to load parent workflow")

	// ErrInvalidWorkflow indicates a workflow cannot be started because it failed
	// composition or validation.
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrCyclicDefinition indicates the steps of a resolved workflow form a cycle.
	ErrCyclicDefinition = errors.New("workflow steps contain a dependency cycle")
)

// CompositionError describes why an extends chain could not be resolved.
// Kind is one of ErrCircularExtends, ErrMissingParent, ErrMaxDepthExceeded or
// ErrLoadParent.
type CompositionError struct {
	Kind     error
	Workflow string   // workflow being resolved
	Parent   string   // parent that triggered the failure
	Chain    []string // names visited so far, leaf first
	MaxDepth int
	Err      error // loader error for ErrLoadParent
}

func (e *CompositionError) Error() string {
	switch e.Kind {
	case ErrCircularExtends:
		return fmt.Sprintf("circular extends in workflow %q: %q is already part of the chain %s",
			e.Workflow, e.Parent, strings.Join(e.Chain, " -> "))
	case ErrMissingParent:
		return fmt.Sprintf("workflow %q extends unknown workflow %q", e.Workflow, e.Parent)
	case ErrMaxDepthExceeded:
		return fmt.Sprintf("extends chain of workflow %q exceeds max depth of %d", e.Workflow, e.MaxDepth)
	default:
		return fmt.Sprintf("failed to load parent workflow %q of %q: %v", e.Parent, e.Workflow, e.Err)
	}
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

func (e *CompositionError) Is(target error) bool {
	return target == e.Kind
}

// StartError is returned by Runner.Start when a workflow cannot be executed.
// Problems holds every composition or validation message found.
type StartError struct {
	Workflow string
	Problems []string
	Err      error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("workflow %q is not executable: %s", e.Workflow, strings.Join(e.Problems, "; "))
}

func (e *StartError) Unwrap() error {
	return e.Err
}

func (e *StartError) Is(target error) bool {
	return target == ErrInvalidWorkflow
}

// IsInvalidWorkflow checks if an error reports a workflow that failed composition or validation.
func IsInvalidWorkflow(err error) bool {
	return errors.Is(err, ErrInvalidWorkflow)
}

// IsCompositionError checks if an error comes from resolving an extends chain.
func IsCompositionError(err error) bool {
	var compositionErr *CompositionError

	return errors.As(err, &compositionErr)
}
