// Package typeexpr parses the free-text type descriptions found in rendered
// reference documentation ("str | list[str]", "dict[str, Any]",
// "One of: ['a', 'b']") into typed expressions, and converts those into JSON
// Schema fragments.
//
// Parsing never fails: anything the grammar does not recognize becomes an
// Unknown expression whose fragment is empty, and the caller decides the
// default.
package typeexpr

import (
	"git.home.luguber.info/inful/schemasync/internal/schema"
)

// Expr is a parsed type description.
type Expr interface {
	// Fragment converts the expression into a schema fragment. An empty
	// fragment means "no constraint could be derived".
	Fragment() *schema.Schema
}

// EnumLiteral is the "One of: [...]" form. Values keep their declared order.
type EnumLiteral struct {
	Values []string
}

// Union is "A | B | ...".
type Union struct {
	Branches []Expr
}

// Dict is "dict[K, V]". Keys of YAML mappings are always strings, so Key is
// kept for completeness only.
type Dict struct {
	Key   Expr
	Value Expr
}

// List is "list[T]".
type List struct {
	Elem Expr
}

// Set is "set[T]"; it differs from List only by requiring unique items.
type Set struct {
	Elem Expr
}

// Basic is a primitive type name, lower-cased.
type Basic struct {
	Name string
}

// Unknown is anything the grammar could not place.
type Unknown struct {
	Raw string
}

// basicTypes maps primitive names onto JSON types. "any" maps to the empty
// string, meaning unconstrained.
var basicTypes = map[string]string{
	"str":     schema.TypeString,
	"string":  schema.TypeString,
	"int":     schema.TypeInteger,
	"integer": schema.TypeInteger,
	"bool":    schema.TypeBoolean,
	"boolean": schema.TypeBoolean,
	"float":   schema.TypeNumber,
	"number":  schema.TypeNumber,
	"any":     "",
	"none":    schema.TypeNull,
	"null":    schema.TypeNull,
}

func (e EnumLiteral) Fragment() *schema.Schema {
	return schema.StringEnum(e.Values)
}

// Fragment drops branches that resolve to nothing. A single survivor is
// returned as is; two or more become anyOf in branch order.
func (u Union) Fragment() *schema.Schema {
	var branches []*schema.Schema
	for _, b := range u.Branches {
		if f := b.Fragment(); !f.IsEmpty() {
			branches = append(branches, f)
		}
	}
	switch len(branches) {
	case 0:
		return &schema.Schema{}
	case 1:
		return branches[0]
	default:
		return &schema.Schema{AnyOf: branches}
	}
}

func (d Dict) Fragment() *schema.Schema {
	out := &schema.Schema{Type: schema.TypeObject, AdditionalProperties: true}
	if v := d.Value.Fragment(); !v.IsEmpty() {
		out.AdditionalProperties = v
	}
	return out
}

func (l List) Fragment() *schema.Schema {
	out := &schema.Schema{Type: schema.TypeArray}
	if items := l.Elem.Fragment(); !items.IsEmpty() {
		out.Items = items
	}
	return out
}

func (s Set) Fragment() *schema.Schema {
	out := List(s).Fragment()
	out.UniqueItems = true
	return out
}

func (b Basic) Fragment() *schema.Schema {
	return &schema.Schema{Type: basicTypes[b.Name]}
}

func (Unknown) Fragment() *schema.Schema {
	return &schema.Schema{}
}
