package sessionlog

import (
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// documentSchemaJSON constrains the document, not its entries: an entry of
// any shape is carried through unchanged.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["sessions"],
  "properties": {
    "sessions": {"type": "array"}
  }
}`

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile session log schema: %w", err)
	}
	return schema, nil
})

// validateDocument checks that data, already known to be valid JSON, has the
// session log shape.
func validateDocument(data []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
