// Package schema builds the JSON Schemas used for constrained decoding of
// model output. Schemas are inlined (no $ref) because the json_schema
// response format of OpenAI-compatible endpoints resolves no references.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reflect returns an inline, reference-free object schema for v.
func Reflect(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(v)
	s.Version = ""
	return s
}

// Variant reflects v and pins its "tool" property to the given tag, so a
// constrained decoder cannot emit the variant under a different tag.
func Variant(v any, tag string) *jsonschema.Schema {
	s := Reflect(v)
	if s.Properties == nil {
		s.Properties = orderedmap.New[string, *jsonschema.Schema]()
	}
	s.Properties.Set("tool", &jsonschema.Schema{
		Type: "string",
		Enum: []any{tag},
	})
	s.Required = prependUnique(s.Required, "tool")
	return s
}

// Union builds a oneOf schema over the given variants.
func Union(variants ...*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{OneOf: variants}
}

// SetProperty replaces a named property on an object schema and marks it
// required.
func SetProperty(s *jsonschema.Schema, name string, prop *jsonschema.Schema) {
	if s.Properties == nil {
		s.Properties = orderedmap.New[string, *jsonschema.Schema]()
	}
	s.Properties.Set(name, prop)
	s.Required = appendUnique(s.Required, name)
}

// Marshal renders a schema to raw JSON.
func Marshal(s *jsonschema.Schema) (json.RawMessage, error) {
	return json.Marshal(s)
}

func prependUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append([]string{v}, list...)
}

func appendUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}
