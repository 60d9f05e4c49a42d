package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// outputSchema is a soft shape contract for the parsed model object. A
// violation does not fail the attempt (the sanitizer and validator decide
// that); it is surfaced in notes so a human can see the model misbehaved.
const outputSchema = `{
  "type": "object",
  "required": ["fields"],
  "properties": {
    "st": {"type": "string"},
    "fields": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number", "null"]}
    },
    "notes": {"type": "string"}
  }
}`

var compiledOutputSchema = jsonschema.MustCompileString("output.schema.json", outputSchema)

// CheckShape validates a raw JSON object against the output contract and
// returns a diagnostic error, or nil when the shape is fine.
func CheckShape(rawObject string) error {
	var v any
	if err := json.Unmarshal([]byte(rawObject), &v); err != nil {
		return fmt.Errorf("decode for shape check: %w", err)
	}
	if err := compiledOutputSchema.Validate(v); err != nil {
		return fmt.Errorf("output shape: %w", err)
	}
	return nil
}
