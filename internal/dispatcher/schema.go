package dispatcher

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const requestSchemaURL = "schema://perfml/request.json"

const requestSchema = `{
  "type": "object",
  "properties": {
    "action": {"type": ["string", "null"]},
    "dataset_path": {"type": ["string", "null"]},
    "model": {"type": ["string", "null"]},
    "features": {
      "anyOf": [
        {"type": "null"},
        {"type": "array", "items": {"type": "number"}},
        {"type": "array", "items": {"type": "array", "items": {"type": "number"}}}
      ]
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func requestValidator() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(requestSchema))
		if err != nil {
			compiledSchemaErr = fmt.Errorf("parse request schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(requestSchemaURL, doc); err != nil {
			compiledSchemaErr = fmt.Errorf("add request schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile(requestSchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// validate checks raw against the request schema.
func validate(raw []byte) error {
	sch, err := requestValidator()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", ErrInvalidRequest, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
