// Package models defines the core domain models for step-based workflow definitions and runs.
package models

// Step is a named unit of work. Needs lists the ids of the steps that must
// complete before this one may run.
type Step struct {
	ID    string   `json:"id"              yaml:"id"              validate:"required"`
	Skill string   `json:"skill"           yaml:"skill"           validate:"required"`
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty" validate:"dive,required"`
}

// Clone returns a deep copy of the step.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}

	clone := &Step{ID: s.ID, Skill: s.Skill}
	if len(s.Needs) > 0 {
		clone.Needs = make([]string, len(s.Needs))
		copy(clone.Needs, s.Needs)
	}

	return clone
}

// WorkflowDefinition is a named, versioned list of steps that may inherit
// steps from a parent definition through Extends.
type WorkflowDefinition struct {
	Name        string  `json:"name"                  yaml:"name"                  validate:"required"`
	Version     int     `json:"version"               yaml:"version"               validate:"gte=0"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Extends     string  `json:"extends,omitempty"     yaml:"extends,omitempty"`
	Steps       []*Step `json:"steps"                 yaml:"steps"                 validate:"dive,required"`
}

// Clone returns a deep copy of the definition.
func (d *WorkflowDefinition) Clone() *WorkflowDefinition {
	if d == nil {
		return nil
	}

	clone := &WorkflowDefinition{
		Name:        d.Name,
		Version:     d.Version,
		Description: d.Description,
		Extends:     d.Extends,
		Steps:       make([]*Step, 0, len(d.Steps)),
	}

	for _, step := range d.Steps {
		clone.Steps = append(clone.Steps, step.Clone())
	}

	return clone
}

// StepIDs returns the step identifiers in declaration order.
func (d *WorkflowDefinition) StepIDs() []string {
	ids := make([]string, 0, len(d.Steps))
	for _, step := range d.Steps {
		ids = append(ids, step.ID)
	}

	return ids
}

// StepByID returns the step with the given id, if declared.
func (d *WorkflowDefinition) StepByID(id string) (*Step, bool) {
	for _, step := range d.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return nil, false
}

// DuplicateStepIDs returns every step id declared more than once, in the order
// the duplicates were found.
func (d *WorkflowDefinition) DuplicateStepIDs() []string {
	seen := make(map[string]bool, len(d.Steps))

	var duplicates []string

	for _, step := range d.Steps {
		if seen[step.ID] {
			duplicates = append(duplicates, step.ID)

			continue
		}

		seen[step.ID] = true
	}

	return duplicates
}
