package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	City  string   `json:"city" description:"City name"`
	Days  *int     `json:"days" description:"Optional forecast length"`
	Units string   `json:"units,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleArgs{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "days")
	assert.Equal(t, "array", props["tags"].(map[string]any)["type"])
	assert.Equal(t, "City name", props["city"].(map[string]any)["description"])
	assert.Equal(t, []string{"city"}, RequiredFields(schema))
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	assert.NoError(t, ValidateParameters(map[string]any{"city": "Paris", "days": float64(3)}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"city": "Paris", "tags": []any{"a"}}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "city", vErr.Field)

	err = ValidateParameters(map[string]any{"city": 7}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type string")

	err = ValidateParameters(map[string]any{"city": "x", "days": 2.5}, schema)
	assert.Error(t, err)
}

func TestRequiredFields_JSONDecodedSchema(t *testing.T) {
	schema := map[string]any{"required": []any{"a", 3, "b"}}
	assert.Equal(t, []string{"a", "b"}, RequiredFields(schema))
	assert.Nil(t, RequiredFields(map[string]any{}))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("no markers {here}", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers {here}", out)

	out, err = RenderTemplate(`{{title .role}}: {{join ", " .items}}`, map[string]any{
		"role":  "rESEARCHER",
		"items": []any{"a", 1, true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Researcher: a, 1, true", out)
}
