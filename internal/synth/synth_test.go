package synth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/schemasync/internal/doctree"
	"git.home.luguber.info/inful/schemasync/internal/extract"
	"git.home.luguber.info/inful/schemasync/internal/schema"
)

func props(paths ...string) extract.Properties {
	out := make(extract.Properties, len(paths))
	for _, p := range paths {
		out[p] = &extract.Property{Path: p, Type: schema.OfType(schema.TypeString)}
	}
	return out
}

func TestDefaultRulesAreOrdered(t *testing.T) {
	require.NoError(t, ValidateRules(DefaultRules()))
}

func TestValidateRulesRejectsShadowedRule(t *testing.T) {
	rules := []Rule{
		{"apps.<app-name>.", Apps},
		{"apps.<app-name>.sockets.<socket-name>.", Sockets},
	}
	err := ValidateRules(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadowed")

	require.Error(t, ValidateRules([]Rule{{"", Apps}}))
	require.Error(t, ValidateRules([]Rule{{"x.", TopLevel}}))
}

func TestPlace(t *testing.T) {
	tests := []struct {
		path string
		cat  Category
		name string
		ok   bool
	}{
		{"apps.<app-name>.sockets.<socket-name>.listen-stream", Sockets, "listen-stream", true},
		{"sockets.<socket-name>.socket-mode", Sockets, "socket-mode", true},
		{"apps.<app-name>.command", Apps, "command", true},
		{"parts.<part-name>.permissions.<permission>.owner", Permissions, "owner", true},
		{"parts.<part-name>.plugin", Parts, "plugin", true},
		{"platforms.<platform-name>.build-on", Platforms, "build-on", true},
		{"components.<component-name>.hooks.<hook-type>.plugs", "", "", false},
		{"components.<component-name>.summary", Components, "summary", true},
		{"lint.ignore", Lint, "ignore", true},
		{"name", TopLevel, "name", true},
		{"build-base", TopLevel, "build-base", true},
		{"parts.<part-name>.override.<step>.x", "", "", false},
		{"layout.<target-path>.bind", "", "", false},
		{"apps.<app-name>.", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			cat, name, ok := Place(tt.path, DefaultRules())
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cat, cat)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestCategorize(t *testing.T) {
	buckets := Categorize(props(
		"name",
		"apps.<app-name>.command",
		"apps.<app-name>.sockets.<socket-name>.listen-stream",
	), DefaultRules())

	assert.Contains(t, buckets[TopLevel], "name")
	assert.Contains(t, buckets[Apps], "command")
	assert.Contains(t, buckets[Sockets], "listen-stream")
	assert.NotContains(t, buckets[Apps], "sockets.<socket-name>.listen-stream")
}

func TestBuildDefinitionsAndSplicing(t *testing.T) {
	b := NewBuilder(DefaultHeader("https://example.com/ref/"), nil)
	s := b.Build(props(
		"name",
		"apps.<app-name>.command",
		"apps.<app-name>.sockets.<socket-name>.listen-stream",
		"parts.<part-name>.plugin",
		"parts.<part-name>.permissions.<permission>.mode",
		"components.<component-name>.type",
		"hooks.<hook-type>.plugs",
		"lint.ignore",
	))

	assert.Equal(t, schema.Dialect, s.Schema)
	assert.Equal(t, DefaultID, s.ID)
	assert.Equal(t, "Schema for snapcraft.yaml. Auto-generated from: https://example.com/ref/", s.Description)
	assert.Equal(t, []string{"name"}, s.Required)
	assert.Equal(t, true, s.AdditionalProperties)

	require.Contains(t, s.Defs, "App")
	app := s.Defs["App"]
	assert.Equal(t, false, app.AdditionalProperties)
	assert.Equal(t, schema.MapOf(schema.RefTo("Socket"), "Socket activation configuration"), app.Properties["sockets"])

	part := s.Defs["Part"]
	assert.Equal(t, true, part.AdditionalProperties)
	assert.Equal(t, schema.TypeArray, part.Properties["permissions"].Type)
	assert.Equal(t, schema.RefTo("Permissions"), part.Properties["permissions"].Items)

	component := s.Defs["Component"]
	assert.Equal(t, schema.RefTo("Hook"), component.Properties["hooks"].AdditionalProperties)

	assert.Equal(t, schema.RefTo("Lint"), s.Properties["lint"])
	assert.Equal(t, schema.MapOf(schema.RefTo("App"), "Application definitions"), s.Properties["apps"])
	assert.Equal(t, schema.MapOf(schema.RefTo("Hook"), "Lifecycle hooks"), s.Properties["hooks"])
	assert.NotContains(t, s.Defs, "Platform")
}

func TestBuildFallbacksWithoutDefinitions(t *testing.T) {
	s := NewBuilder(DefaultHeader("u"), nil).Build(props("name", "plugs"))

	assert.Nil(t, s.Defs)
	assert.Equal(t, schema.MapOf(schema.OpenObject(), "Snap components"), s.Properties["components"])
	assert.Equal(t, schema.OpenObject(), s.Properties["lint"])

	platforms := s.Properties["platforms"]
	value, ok := platforms.AdditionalSchema()
	require.True(t, ok)
	assert.Equal(t, []*schema.Schema{schema.OfType(schema.TypeObject), schema.OfType(schema.TypeNull)}, value.AnyOf)

	arch := s.Properties["architectures"]
	assert.Equal(t, schema.TypeArray, arch.Type)
	assert.Equal(t, schema.OfType(schema.TypeString), arch.Items.AnyOf[0])

	// Top-level plugs came from the document and are kept; slots are defaulted.
	assert.Equal(t, schema.OfType(schema.TypeString), s.Properties["plugs"])
	assert.Equal(t, "Interface slots", s.Properties["slots"].Description)
}

func TestBuildDoesNotShareFragments(t *testing.T) {
	p := props("apps.<app-name>.command")
	s := NewBuilder(DefaultHeader("u"), nil).Build(p)
	s.Defs["App"].Properties["command"].Enum = []string{"x"}

	again := NewBuilder(DefaultHeader("u"), nil).Build(p)
	assert.Empty(t, again.Defs["App"].Properties["command"].Enum)
}

func TestValidateRulesRejectsUnknownCategory(t *testing.T) {
	err := ValidateRules([]Rule{{"sockets.<socket-name>.", Category("sokets")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid category "sokets"`)

	require.NoError(t, ValidateRules([]Rule{
		{"components.<component-name>.hooks.<hook-type>.", Skip},
		{"slots.<slot-name>.", Slots},
	}))
}

func TestCategorizeLaterHeadingWins(t *testing.T) {
	section := func(path, desc string) string {
		return "<h3>" + path + "</h3><p><strong>Description</strong></p><p>" + desc + "</p>"
	}
	appLevel := section("apps.&lt;app-name&gt;.sockets.&lt;socket-name&gt;.listen-stream", "app level")
	topLevel := section("sockets.&lt;socket-name&gt;.listen-stream", "top level")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"top-level socket last", appLevel + topLevel, "top level"},
		{"app socket last", topLevel + appLevel, "app level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := doctree.ParseHTML(strings.NewReader("<main>" + tt.body + "</main>"))
			require.NoError(t, err)

			buckets := Categorize(extract.Extract(doc, extract.DefaultOptions()), DefaultRules())
			field := buckets[Sockets]["listen-stream"]
			require.NotNil(t, field)
			assert.Equal(t, tt.want, field.Description)
		})
	}
}
