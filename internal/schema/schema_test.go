package schema

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Query string `json:"query" jsonschema:"description=free-text query"`
	Limit int    `json:"limit"`
}

func TestReflectInlinesSchema(t *testing.T) {
	s := Reflect(&sample{})

	raw, err := Marshal(s)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "$ref")
	require.NotContains(t, string(raw), "$defs")

	prop, ok := s.Properties.Get("query")
	require.True(t, ok)
	require.Equal(t, "string", prop.Type)
	require.Equal(t, "free-text query", prop.Description)
}

func TestVariantPinsTag(t *testing.T) {
	s := Variant(&sample{}, "/things/search")

	prop, ok := s.Properties.Get("tool")
	require.True(t, ok)
	require.Equal(t, []any{"/things/search"}, prop.Enum)
	require.Equal(t, "tool", s.Required[0])
}

func TestUnionBuildsOneOf(t *testing.T) {
	u := Union(Variant(&sample{}, "/a"), Variant(&sample{}, "/b"))
	require.Len(t, u.OneOf, 2)
}

func TestSetPropertyMarksRequired(t *testing.T) {
	s := Reflect(&sample{})
	SetProperty(s, "function", &jsonschema.Schema{Type: "object"})

	prop, ok := s.Properties.Get("function")
	require.True(t, ok)
	require.Equal(t, "object", prop.Type)
	require.Contains(t, s.Required, "function")

	// setting twice must not duplicate the required entry
	SetProperty(s, "function", &jsonschema.Schema{Type: "object"})
	count := 0
	for _, name := range s.Required {
		if name == "function" {
			count++
		}
	}
	require.Equal(t, 1, count)

	raw, err := Marshal(s)
	require.NoError(t, err)
	require.True(t, json.Valid(raw))
}
