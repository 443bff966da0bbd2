// Package validation checks LLM-extracted documents against JSON schemas
// before they enter the matching pipeline. Model output is untrusted input.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Result reports schema validation outcome with per-field messages.
type Result struct {
	Valid  bool
	Errors []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

// ValidateObject validates an already-unmarshaled value against a schema.
func ValidateObject(document interface{}, schemaJSON string) (*Result, error) {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(document)

	res, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &Result{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, FieldError{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}
	return out, nil
}

// ErrorSummary joins field errors into a single message for logs and
// error details.
func (r *Result) ErrorSummary() string {
	if r.Valid || len(r.Errors) == 0 {
		return ""
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}
