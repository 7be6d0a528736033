package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, (*Schema)(nil).IsEmpty())
	assert.True(t, (&Schema{}).IsEmpty())
	assert.False(t, OfType(TypeString).IsEmpty())
	assert.False(t, (&Schema{AdditionalProperties: true}).IsEmpty())
}

func TestMarshal_AdditionalPropertiesForms(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"open":   OpenObject(),
			"closed": {Type: TypeObject, AdditionalProperties: false},
			"typed":  MapOf(OfType(TypeInteger), ""),
		},
	}

	out, err := Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	props := decoded["properties"].(map[string]any)
	assert.Equal(t, true, props["open"].(map[string]any)["additionalProperties"])
	assert.Equal(t, false, props["closed"].(map[string]any)["additionalProperties"])
	assert.Equal(t, map[string]any{"type": "integer"}, props["typed"].(map[string]any)["additionalProperties"])
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestMarshal_DoesNotEscapeHTML(t *testing.T) {
	out, err := Marshal(&Schema{Description: "apps.<app-name>.command & friends"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "apps.<app-name>.command & friends")
}

func TestClone_IsDeep(t *testing.T) {
	orig := &Schema{
		Type:                 TypeArray,
		Items:                StringEnum([]string{"a"}),
		AdditionalProperties: OfType(TypeString),
		AnyOf:                []*Schema{OfType(TypeNull)},
		Properties:           map[string]*Schema{"x": OfType(TypeString)},
	}
	c := orig.Clone()
	c.Items.Enum[0] = "changed"
	c.AnyOf[0].Type = TypeString
	c.Properties["x"].Type = TypeInteger
	sub, _ := c.AdditionalSchema()
	sub.Type = TypeBoolean

	assert.Equal(t, "a", orig.Items.Enum[0])
	assert.Equal(t, TypeNull, orig.AnyOf[0].Type)
	assert.Equal(t, TypeString, orig.Properties["x"].Type)
	origSub, _ := orig.AdditionalSchema()
	assert.Equal(t, TypeString, origSub.Type)
}

func TestRefTo(t *testing.T) {
	assert.Equal(t, "#/$defs/App", RefTo("App").Ref)
}
