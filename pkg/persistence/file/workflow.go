package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var definitionExtensions = []string{".yaml", ".yml", ".json"}

// WorkflowRepository reads and writes definition files under <root>/workflows.
type WorkflowRepository struct {
	dir      string
	validate *validator.Validate
	logger   *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{
		dir:      filepath.Join(root, "workflows"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.WithModule("file_workflows"),
	}
}

// GetByName loads <name>.yaml, <name>.yml or <name>.json, in that order.
func (wr *WorkflowRepository) GetByName(_ context.Context, name string) (*models.WorkflowDefinition, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, persistence.NewWorkflowError("GetByName", name, persistence.ErrWorkflowNotFound)
	}

	for _, ext := range definitionExtensions {
		path := filepath.Join(wr.dir, name+ext)

		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read workflow file %s: %w", path, err)
		}

		return wr.decode(name, data)
	}

	return nil, persistence.NewWorkflowError("GetByName", name, persistence.ErrWorkflowNotFound)
}

// GetAll loads every definition file sorted by workflow name.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	files, err := os.ReadDir(wr.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []*models.WorkflowDefinition{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	seen := make(map[string]bool)
	definitions := make([]*models.WorkflowDefinition, 0, len(files))

	for _, file := range files {
		ext := filepath.Ext(file.Name())
		if file.IsDir() || !isDefinitionExtension(ext) {
			continue
		}

		name := strings.TrimSuffix(file.Name(), ext)
		if seen[name] {
			continue
		}

		seen[name] = true

		definition, err := wr.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}

		definitions = append(definitions, definition)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})

	return definitions, nil
}

// Save writes the definition as <root>/workflows/<name>.yaml, replacing any
// previous file for the same name.
func (wr *WorkflowRepository) Save(_ context.Context, definition *models.WorkflowDefinition) error {
	if err := wr.check("Save", definition); err != nil {
		return err
	}

	data, err := yaml.Marshal(definition)
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", definition.Name, err)
	}

	for _, ext := range definitionExtensions[1:] {
		if err := os.Remove(filepath.Join(wr.dir, definition.Name+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove previous workflow file: %w", err)
		}
	}

	if err := writeAtomic(filepath.Join(wr.dir, definition.Name+".yaml"), data); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", definition.Name, err)
	}

	wr.logger.Debug("Saved workflow definition", "workflow_name", definition.Name, "steps", len(definition.Steps))

	return nil
}

// decode parses a YAML or JSON document, checks it against the definition
// schema and the struct tags, and rejects duplicate step ids.
func (wr *WorkflowRepository) decode(name string, data []byte) (*models.WorkflowDefinition, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, &persistence.WorkflowError{Op: "decode", Workflow: name, Err: persistence.ErrInvalidDefinition, Message: err.Error()}
	}

	problems, err := checkSchema(normalize(document))
	if err != nil {
		return nil, err
	}

	if len(problems) > 0 {
		return nil, &persistence.WorkflowError{Op: "decode", Workflow: name, Err: persistence.ErrInvalidDefinition, Message: joinProblems(problems)}
	}

	var definition models.WorkflowDefinition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, &persistence.WorkflowError{Op: "decode", Workflow: name, Err: persistence.ErrInvalidDefinition, Message: err.Error()}
	}

	if definition.Name != name {
		return nil, &persistence.WorkflowError{
			Op:       "decode",
			Workflow: name,
			Err:      persistence.ErrInvalidDefinition,
			Message:  fmt.Sprintf("file declares workflow %q", definition.Name),
		}
	}

	if err := wr.check("decode", &definition); err != nil {
		return nil, err
	}

	return &definition, nil
}

func (wr *WorkflowRepository) check(op string, definition *models.WorkflowDefinition) error {
	if err := wr.validate.Struct(definition); err != nil {
		return &persistence.WorkflowError{Op: op, Workflow: definition.Name, Err: persistence.ErrInvalidDefinition, Message: err.Error()}
	}

	return persistence.CheckDuplicateSteps(op, definition)
}

// normalize converts YAML-decoded values into the JSON shapes the schema
// loader expects.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalize(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}

		return out
	default:
		return v
	}
}

func isDefinitionExtension(ext string) bool {
	for _, candidate := range definitionExtensions {
		if ext == candidate {
			return true
		}
	}

	return false
}
