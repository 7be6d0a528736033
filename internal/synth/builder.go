package synth

import (
	"git.home.luguber.info/inful/schemasync/internal/extract"
	"git.home.luguber.info/inful/schemasync/internal/schema"
)

// Default header values for the generated snapcraft.yaml schema.
const (
	DefaultID      = "https://raw.githubusercontent.com/nooreldeensalah/snapcraft-intellisense/main/schemas/snapcraft.json"
	DefaultTitle   = "Snapcraft YAML Schema"
	DefaultSubject = "snapcraft.yaml"
)

// Header carries the document-level metadata.
type Header struct {
	ID        string
	Title     string
	Subject   string
	SourceURL string
	Required  []string
}

// DefaultHeader returns the snapcraft.yaml header for a reference page URL.
func DefaultHeader(sourceURL string) Header {
	return Header{
		ID:        DefaultID,
		Title:     DefaultTitle,
		Subject:   DefaultSubject,
		SourceURL: sourceURL,
		Required:  []string{"name"},
	}
}

func (h Header) description() string {
	return "Schema for " + h.Subject + ". Auto-generated from: " + h.SourceURL
}

// Definition describes a $defs entry built from one bucket.
type Definition struct {
	Name            string
	Category        Category
	Description     string
	AllowAdditional bool
}

// leafDefinitions are built before the composites that reference them.
var leafDefinitions = []Definition{
	{"Socket", Sockets, "Socket configuration for app activation", false},
	{"Hook", Hooks, "Hook configuration", false},
	{"Permissions", Permissions, "File permission settings", false},
	{"Lint", Lint, "Linting configuration", false},
	{"Platform", Platforms, "Platform/architecture configuration", false},
	{"Architecture", Architectures, "Architecture configuration", false},
	{"ContentPlug", Plugs, "Content interface plug definition", true},
}

// composite is a definition with one field that references another
// definition.
type composite struct {
	Definition
	field string
	ref   string
	wrap  func(ref *schema.Schema) *schema.Schema
}

var compositeDefinitions = []composite{
	{
		Definition: Definition{"Component", Components, "Snap component definition", false},
		field:      "hooks",
		ref:        "Hook",
		wrap: func(ref *schema.Schema) *schema.Schema {
			return schema.MapOf(ref, "Component lifecycle hooks")
		},
	},
	{
		Definition: Definition{"App", Apps, "Application definition", false},
		field:      "sockets",
		ref:        "Socket",
		wrap: func(ref *schema.Schema) *schema.Schema {
			return schema.MapOf(ref, "Socket activation configuration")
		},
	},
	{
		Definition: Definition{"Part", Parts, "Part definition for building snap components", true},
		field:      "permissions",
		ref:        "Permissions",
		wrap: func(ref *schema.Schema) *schema.Schema {
			return &schema.Schema{Type: schema.TypeArray, Description: "File permission settings", Items: ref}
		},
	},
}

// wrappers are the top-level maps whose values are composite definitions.
var wrappers = []struct {
	key, def, description string
}{
	{"apps", "App", "Application definitions"},
	{"parts", "Part", "Part definitions for building the snap"},
	{"hooks", "Hook", "Lifecycle hooks"},
	{"components", "Component", "Snap components"},
}

// Builder assembles schemas from extracted properties.
type Builder struct {
	header Header
	rules  []Rule
}

// NewBuilder returns a Builder. A nil rules slice selects DefaultRules.
func NewBuilder(header Header, rules []Rule) *Builder {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Builder{header: header, rules: rules}
}

// Build categorizes props and returns the assembled schema.
func (b *Builder) Build(props extract.Properties) *schema.Schema {
	buckets := Categorize(props, b.rules)
	defs := buildDefinitions(buckets)

	out := &schema.Schema{
		Schema:               schema.Dialect,
		ID:                   b.header.ID,
		Title:                b.header.Title,
		Description:          b.header.description(),
		Type:                 schema.TypeObject,
		Properties:           buildTopLevel(buckets[TopLevel], defs),
		Required:             append([]string(nil), b.header.Required...),
		AdditionalProperties: true,
	}
	if len(defs) > 0 {
		out.Defs = defs
	}
	return out
}

func buildDefinitions(buckets Buckets) map[string]*schema.Schema {
	defs := make(map[string]*schema.Schema)
	for _, d := range leafDefinitions {
		if fields := buckets[d.Category]; len(fields) > 0 {
			defs[d.Name] = objectDefinition(d, fields)
		}
	}
	for _, c := range compositeDefinitions {
		fields := buckets[c.Category]
		if len(fields) == 0 {
			continue
		}
		def := objectDefinition(c.Definition, fields)
		if _, ok := defs[c.ref]; ok {
			def.Properties[c.field] = c.wrap(schema.RefTo(c.ref))
		}
		defs[c.Name] = def
	}
	return defs
}

func objectDefinition(d Definition, fields map[string]*schema.Schema) *schema.Schema {
	props := make(map[string]*schema.Schema, len(fields)+1)
	for name, f := range fields {
		props[name] = f.Clone()
	}
	return &schema.Schema{
		Type:                 schema.TypeObject,
		Description:          d.Description,
		Properties:           props,
		AdditionalProperties: d.AllowAdditional,
	}
}

// refOr references def when it was built, else returns fallback.
func refOr(defs map[string]*schema.Schema, def string, fallback *schema.Schema) *schema.Schema {
	if _, ok := defs[def]; ok {
		return schema.RefTo(def)
	}
	return fallback
}

func buildTopLevel(fields map[string]*schema.Schema, defs map[string]*schema.Schema) map[string]*schema.Schema {
	props := make(map[string]*schema.Schema, len(fields)+8)
	for name, f := range fields {
		props[name] = f.Clone()
	}

	for _, w := range wrappers {
		props[w.key] = schema.MapOf(refOr(defs, w.def, schema.OpenObject()), w.description)
	}

	// Platform keys may be given without a body ("amd64:").
	props["platforms"] = schema.MapOf(&schema.Schema{AnyOf: []*schema.Schema{
		refOr(defs, "Platform", schema.OfType(schema.TypeObject)),
		schema.OfType(schema.TypeNull),
	}}, "Platform/architecture configurations")

	props["architectures"] = &schema.Schema{
		Type:        schema.TypeArray,
		Description: "Architecture configurations (for core22 and older)",
		Items: &schema.Schema{AnyOf: []*schema.Schema{
			schema.OfType(schema.TypeString),
			refOr(defs, "Architecture", schema.OfType(schema.TypeObject)),
		}},
	}

	for _, key := range []string{"plugs", "slots"} {
		if _, ok := props[key]; !ok {
			open := schema.OpenObject()
			open.Description = "Interface " + key
			props[key] = open
		}
	}

	if _, ok := defs["Lint"]; ok {
		props["lint"] = schema.RefTo("Lint")
	} else if _, ok := props["lint"]; !ok {
		props["lint"] = schema.OpenObject()
	}
	return props
}
