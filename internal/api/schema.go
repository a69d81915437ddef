package api

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const todoObject = `{
	"type": "object",
	"required": ["id", "title", "completed"],
	"properties": {
		"id": {"type": "integer", "minimum": 1},
		"title": {"type": "string"},
		"completed": {"type": "boolean"}
	}
}`

var (
	todoSchema = jsonschema.MustCompileString("todo.schema.json", todoObject)
	listSchema = jsonschema.MustCompileString("todo-list.schema.json",
		fmt.Sprintf(`{"type": "array", "items": %s}`, todoObject))
)

// decode checks body against schema and then unmarshals it into out.
func decode(body []byte, schema *jsonschema.Schema, out any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("unexpected response shape: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}
