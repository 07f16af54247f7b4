package file

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "integer", "minimum": 0},
    "description": {"type": "string"},
    "extends": {"type": ["string", "null"]},
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "skill"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "skill": {"type": "string", "minLength": 1},
          "needs": {
            "type": ["array", "null"],
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`

var definitionSchemaLoader = gojsonschema.NewStringLoader(definitionSchema)

// checkSchema validates a decoded definition document and returns one message
// per violation.
func checkSchema(document any) ([]string, error) {
	result, err := gojsonschema.Validate(definitionSchemaLoader, gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}

	return problems, nil
}

func joinProblems(problems []string) string {
	return strings.Join(problems, "; ")
}
