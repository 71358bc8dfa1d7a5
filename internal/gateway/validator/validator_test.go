package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restfront-gateway/internal/gateway/mapping"
)

func numberSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"number": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"number"},
	}
}

func TestCompile_NilAndEmptySchemas(t *testing.T) {
	schema, err := Compile(nil)
	require.NoError(t, err)
	assert.Nil(t, schema)

	schema, err = Compile(map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{
		"type": 42,
	})
	require.Error(t, err)
}

func TestValidate_Passes(t *testing.T) {
	schema, err := Compile(numberSchema())
	require.NoError(t, err)

	verdict := schema.Validate(map[string]interface{}{"number": "10"})
	assert.True(t, verdict.Valid)
}

func TestValidate_ReportsViolations(t *testing.T) {
	schema, err := Compile(numberSchema())
	require.NoError(t, err)

	verdict := schema.Validate(map[string]interface{}{"number": 10})
	require.False(t, verdict.Valid)

	violations, ok := verdict.Errors.([]string)
	require.True(t, ok)
	assert.NotEmpty(t, violations)
}

func TestValidate_NilSchemaAlwaysValid(t *testing.T) {
	var schema *Schema
	assert.True(t, schema.Validate(nil).Valid)
}

func TestCheckBundles(t *testing.T) {
	good := map[string]*mapping.Bundle{
		"ok": {
			APIMaps: []*mapping.Mapping{
				{Path: mapping.StringList{"/a"}, Input: mapping.InputHooks{Schema: numberSchema()}},
			},
		},
	}
	require.NoError(t, CheckBundles(good))

	bad := map[string]*mapping.Bundle{
		"broken": {
			APIMaps: []*mapping.Mapping{
				{Path: mapping.StringList{"/b"}, Input: mapping.InputHooks{Schema: map[string]interface{}{"type": 42}}},
			},
		},
	}
	err := CheckBundles(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bundle "broken"`)
}
