package workflow

import (
	"testing"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func allSkills(string) bool { return true }

func TestValidate_LintTestDeploy(t *testing.T) {
	definition := &models.WorkflowDefinition{
		Name: "ship",
		Steps: []*models.Step{
			step("lint", "golint"),
			step("test", "gotest", "lint"),
			step("deploy", "deployer", "test"),
		},
	}

	result := Validate(definition, allSkills)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"lint", "test", "deploy"}, result.ExecutionOrder)
}

func TestValidate_TopologicalValidity(t *testing.T) {
	definition := &models.WorkflowDefinition{
		Name: "diamond",
		Steps: []*models.Step{
			step("report", "r", "left", "right"),
			step("left", "l", "root"),
			step("right", "r", "root"),
			step("root", "s"),
		},
	}

	result := Validate(definition, allSkills)
	assert.True(t, result.Valid)

	index := make(map[string]int)
	for i, id := range result.ExecutionOrder {
		index[id] = i
	}

	for _, s := range definition.Steps {
		for _, needed := range s.Needs {
			assert.Less(t, index[needed], index[s.ID], "%s must come before %s", needed, s.ID)
		}
	}
}

func TestValidate_CollectsEveryError(t *testing.T) {
	definition := &models.WorkflowDefinition{
		Name: "broken",
		Steps: []*models.Step{
			step("a", "known", "b"),
			step("b", "missing-skill", "a"),
			step("c", "known", "ghost"),
		},
	}

	known := func(name string) bool { return name == "known" }

	result := Validate(definition, known)

	assert.False(t, result.Valid)
	assert.Nil(t, result.ExecutionOrder)
	assert.Equal(t, []string{
		`Step "c" needs unknown step "ghost"`,
		`Step "b" references unknown skill "missing-skill"`,
		"Circular dependency detected: a -> b",
	}, result.Errors)
}

func TestValidate_UnknownNeedWithoutCycle(t *testing.T) {
	definition := &models.WorkflowDefinition{
		Name:  "dangling",
		Steps: []*models.Step{step("a", "s", "ghost")},
	}

	result := Validate(definition, nil)

	assert.False(t, result.Valid)
	assert.Equal(t, []string{`Step "a" needs unknown step "ghost"`}, result.Errors)
	assert.NotNil(t, result.ExecutionOrder)
}

func TestValidate_EmptyDefinitionIsValid(t *testing.T) {
	result := Validate(&models.WorkflowDefinition{Name: "empty"}, allSkills)

	assert.True(t, result.Valid)
	assert.Empty(t, result.ExecutionOrder)
}

func TestExecutionOrder_DropsUndeclaredNodes(t *testing.T) {
	definition := &models.WorkflowDefinition{
		Name:  "dangling",
		Steps: []*models.Step{step("a", "s", "ghost"), step("b", "s", "a")},
	}

	order, err := executionOrder(definition)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)

	cyclic := &models.WorkflowDefinition{Name: "loop", Steps: []*models.Step{step("a", "s", "a")}}

	_, err = executionOrder(cyclic)
	assert.ErrorIs(t, err, ErrCyclicDefinition)
}
