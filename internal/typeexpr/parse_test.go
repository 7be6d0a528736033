package typeexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/schemasync/internal/schema"
)

func TestParseFragment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *schema.Schema
	}{
		{
			name:  "enum literal keeps declared order",
			input: "One of: ['strict', 'classic', 'devmode']",
			want:  schema.StringEnum([]string{"strict", "classic", "devmode"}),
		},
		{
			name:  "enum literal is case insensitive",
			input: "one of: ['b','a']",
			want:  schema.StringEnum([]string{"b", "a"}),
		},
		{
			name:  "enum literal drops duplicates",
			input: "One of: ['a', 'b', 'a']",
			want:  schema.StringEnum([]string{"a", "b"}),
		},
		{
			name:  "basic string",
			input: "str",
			want:  schema.OfType(schema.TypeString),
		},
		{
			name:  "basic types are case insensitive",
			input: "Bool",
			want:  schema.OfType(schema.TypeBoolean),
		},
		{
			name:  "backticks are ignored",
			input: "`int`",
			want:  schema.OfType(schema.TypeInteger),
		},
		{
			name:  "none maps to null",
			input: "None",
			want:  schema.OfType(schema.TypeNull),
		},
		{
			name:  "any is unconstrained",
			input: "Any",
			want:  &schema.Schema{},
		},
		{
			name:  "unknown name",
			input: "UniqueStrList",
			want:  &schema.Schema{},
		},
		{
			name:  "free text",
			input: "See the description below",
			want:  &schema.Schema{},
		},
		{
			name:  "list with items",
			input: "list[str]",
			want:  &schema.Schema{Type: schema.TypeArray, Items: schema.OfType(schema.TypeString)},
		},
		{
			name:  "list of any omits items",
			input: "list[Any]",
			want:  &schema.Schema{Type: schema.TypeArray},
		},
		{
			name:  "set requires unique items",
			input: "set[str]",
			want:  &schema.Schema{Type: schema.TypeArray, Items: schema.OfType(schema.TypeString), UniqueItems: true},
		},
		{
			name:  "nested dict of lists",
			input: "dict[str, list[int]]",
			want: &schema.Schema{
				Type: schema.TypeObject,
				AdditionalProperties: &schema.Schema{
					Type:  schema.TypeArray,
					Items: schema.OfType(schema.TypeInteger),
				},
			},
		},
		{
			name:  "dict of any is open",
			input: "dict[str, Any]",
			want:  schema.OpenObject(),
		},
		{
			name:  "union of two resolvable branches",
			input: "str | list[str]",
			want: &schema.Schema{AnyOf: []*schema.Schema{
				schema.OfType(schema.TypeString),
				{Type: schema.TypeArray, Items: schema.OfType(schema.TypeString)},
			}},
		},
		{
			name:  "union with one empty branch is not wrapped",
			input: "str | UniqueStrList",
			want:  schema.OfType(schema.TypeString),
		},
		{
			name:  "union with no resolvable branch",
			input: "Foo | Bar",
			want:  &schema.Schema{},
		},
		{
			name:  "pipe inside brackets does not split the outer expression",
			input: "dict[str, str | int]",
			want: &schema.Schema{
				Type: schema.TypeObject,
				AdditionalProperties: &schema.Schema{AnyOf: []*schema.Schema{
					schema.OfType(schema.TypeString),
					schema.OfType(schema.TypeInteger),
				}},
			},
		},
		{
			name:  "unbalanced brackets",
			input: "list[str",
			want:  &schema.Schema{},
		},
		{
			name:  "dict with a single argument",
			input: "dict[str]",
			want:  &schema.Schema{},
		},
		{
			name:  "empty input",
			input: "   ",
			want:  &schema.Schema{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFragment(tt.input))
		})
	}
}

func TestParse_Variants(t *testing.T) {
	assert.IsType(t, EnumLiteral{}, Parse("One of: ['a']"))
	assert.IsType(t, Union{}, Parse("str | int"))
	assert.IsType(t, Dict{}, Parse("Dict[str, str]"))
	assert.IsType(t, List{}, Parse("List[str]"))
	assert.IsType(t, Set{}, Parse("Set[str]"))
	assert.IsType(t, Basic{}, Parse("int"))
	assert.IsType(t, Unknown{}, Parse("whatever this is"))
}

func TestParse_EnumLiteralWithoutQuotesFallsThrough(t *testing.T) {
	e := Parse("One of: [a, b]")
	_, isEnum := e.(EnumLiteral)
	assert.False(t, isEnum)
	assert.True(t, e.Fragment().IsEmpty())
}

func TestUnionFragment_PreservesBranchOrder(t *testing.T) {
	f := ParseFragment("int | str | bool")
	require.Len(t, f.AnyOf, 3)
	assert.Equal(t, schema.TypeInteger, f.AnyOf[0].Type)
	assert.Equal(t, schema.TypeString, f.AnyOf[1].Type)
	assert.Equal(t, schema.TypeBoolean, f.AnyOf[2].Type)
}
