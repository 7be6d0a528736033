// Package schema holds the JSON Schema (2020-12) document model emitted by
// schemasync. Fragments and full documents share one type; a fragment with no
// fields set is the "unconstrained" schema.
package schema

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Dialect is the meta-schema every generated document declares.
const Dialect = "https://json-schema.org/draft/2020-12/schema"

// JSON type names.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeNull    = "null"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Schema is a JSON Schema node. AdditionalProperties holds either a bool or a
// *Schema; nil omits the keyword.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	ID                   string             `json:"$id,omitempty"`
	Title                string             `json:"title,omitempty"`
	Description          string             `json:"description,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	UniqueItems          bool               `json:"uniqueItems,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty"`
	Defs                 map[string]*Schema `json:"$defs,omitempty"`
}

// OfType returns a fragment constrained to a single JSON type.
func OfType(t string) *Schema {
	return &Schema{Type: t}
}

// StringEnum returns a string fragment restricted to values.
func StringEnum(values []string) *Schema {
	return &Schema{Type: TypeString, Enum: slices.Clone(values)}
}

// RefTo returns a reference to a named definition under $defs.
func RefTo(def string) *Schema {
	return &Schema{Ref: "#/$defs/" + def}
}

// OpenObject returns an object fragment that admits any keys.
func OpenObject() *Schema {
	return &Schema{Type: TypeObject, AdditionalProperties: true}
}

// MapOf returns an object fragment whose values must match value.
func MapOf(value *Schema, description string) *Schema {
	return &Schema{Type: TypeObject, Description: description, AdditionalProperties: value}
}

// IsEmpty reports whether s carries no constraint at all.
func (s *Schema) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Schema == "" && s.ID == "" && s.Title == "" && s.Description == "" &&
		s.Ref == "" && s.Type == "" && len(s.Enum) == 0 && len(s.Properties) == 0 &&
		len(s.Required) == 0 && s.Items == nil && !s.UniqueItems &&
		s.AdditionalProperties == nil && s.PropertyNames == nil &&
		len(s.AnyOf) == 0 && len(s.Defs) == 0
}

// AdditionalSchema returns the additionalProperties value when it is a schema.
func (s *Schema) AdditionalSchema() (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	sub, ok := s.AdditionalProperties.(*Schema)
	return sub, ok && sub != nil
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	c.Enum = slices.Clone(s.Enum)
	c.Required = slices.Clone(s.Required)
	c.Items = s.Items.Clone()
	c.PropertyNames = s.PropertyNames.Clone()
	c.Properties = cloneMap(s.Properties)
	c.Defs = cloneMap(s.Defs)
	if sub, ok := s.AdditionalSchema(); ok {
		c.AdditionalProperties = sub.Clone()
	}
	if s.AnyOf != nil {
		c.AnyOf = make([]*Schema, len(s.AnyOf))
		for i, branch := range s.AnyOf {
			c.AnyOf[i] = branch.Clone()
		}
	}
	return &c
}

func cloneMap(in map[string]*Schema) map[string]*Schema {
	if in == nil {
		return nil
	}
	out := make(map[string]*Schema, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// SortedKeys returns the keys of a property or definition map in order.
func SortedKeys(m map[string]*Schema) []string {
	return slices.Sorted(maps.Keys(m))
}

// Marshal renders s as indented JSON with a trailing newline. HTML characters
// are not escaped so descriptions stay readable; map keys are emitted in sorted
// order which keeps the output byte-stable.
func Marshal(s *Schema) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
