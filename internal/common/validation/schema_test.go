// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name", "score"],
  "properties": {
    "name": {"type": "string"},
    "score": {"type": "number"}
  }
}`

func TestValidateObject_Valid(t *testing.T) {
	res, err := ValidateObject(map[string]interface{}{"name": "x", "score": 1.0}, testSchema)

	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.ErrorSummary())
}

func TestValidateObject_MissingRequiredField(t *testing.T) {
	res, err := ValidateObject(map[string]interface{}{"name": "x"}, testSchema)

	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.ErrorSummary(), "score")
}

func TestValidateObject_BadSchema(t *testing.T) {
	res, err := ValidateObject(map[string]interface{}{}, "{not json")

	assert.Error(t, err)
	assert.Nil(t, res)
}
