// Package enhance injects externally sourced identifier lists into a built
// schema. Every change targets a fixed, known location; fields that are
// missing from the schema are left alone.
package enhance

import (
	"fmt"
	"slices"
	"strings"

	"git.home.luguber.info/inful/schemasync/internal/schema"
)

// Architectures are the snap architecture names, sorted.
var Architectures = []string{"amd64", "arm64", "armhf", "i386", "ppc64el", "riscv64", "s390x"}

// ExtraBuildBase is always accepted as a build-base even though it is not a
// published base.
const ExtraBuildBase = "devel"

// listedInterfaces bounds the interface names quoted in plug/slot descriptions.
const listedInterfaces = 25

// Identifiers are the enumerations applied to the schema. A nil
// Architectures uses the package default.
type Identifiers struct {
	Plugins       []string
	Bases         []string
	Extensions    []string
	Interfaces    []string
	Architectures []string
}

// Applied records one enumeration written into the schema.
type Applied struct {
	Target string
	Count  int
}

// Report lists what Enhance changed, in the order it was applied.
type Report struct {
	Applied []Applied
}

func (r *Report) add(target string, count int) {
	r.Applied = append(r.Applied, Applied{Target: target, Count: count})
}

// Targets returns the locations that were modified.
func (r Report) Targets() []string {
	out := make([]string, 0, len(r.Applied))
	for _, a := range r.Applied {
		out = append(out, a.Target)
	}
	return out
}

// Enhance mutates s in place.
func Enhance(s *schema.Schema, ids Identifiers) Report {
	var r Report
	if s == nil {
		return r
	}
	plugins(s, ids.Plugins, &r)
	bases(s, ids.Bases, &r)
	extensions(s, ids.Extensions, &r)
	interfaces(s, ids.Interfaces, &r)

	archs := ids.Architectures
	if archs == nil {
		archs = Architectures
	}
	architectures(s, archs, &r)
	return r
}

// defProperty returns a property of a $defs entry.
func defProperty(s *schema.Schema, def, prop string) *schema.Schema {
	d := s.Defs[def]
	if d == nil {
		return nil
	}
	return d.Properties[prop]
}

func plugins(s *schema.Schema, names []string, r *Report) {
	if len(names) == 0 {
		return
	}
	if p := defProperty(s, "Part", "plugin"); p != nil {
		p.Enum = slices.Clone(names)
		r.add("$defs/Part/plugin", len(names))
	}
}

func bases(s *schema.Schema, names []string, r *Report) {
	if len(names) == 0 {
		return
	}
	if p := s.Properties["base"]; p != nil {
		p.Enum = slices.Clone(names)
		r.add("base", len(names))
	}
	if p := s.Properties["build-base"]; p != nil {
		build := slices.Clone(names)
		if !slices.Contains(build, ExtraBuildBase) {
			build = append(build, ExtraBuildBase)
		}
		p.Enum = build
		r.add("build-base", len(build))
	}
}

func extensions(s *schema.Schema, names []string, r *Report) {
	if len(names) == 0 {
		return
	}
	p := defProperty(s, "App", "extensions")
	if p == nil {
		return
	}
	if p.Type == schema.TypeArray {
		p.Items = schema.StringEnum(names)
	} else {
		p.Enum = slices.Clone(names)
	}
	r.add("$defs/App/extensions", len(names))
}

// plugSlotValue admits the bare ("desktop:"), inline string and object forms
// of a plug or slot declaration.
func plugSlotValue(names []string) *schema.Schema {
	str := func(description string) *schema.Schema {
		return &schema.Schema{Type: schema.TypeString, Description: description}
	}
	iface := schema.StringEnum(names)
	iface.Description = "The interface type for this plug/slot."
	bus := schema.StringEnum([]string{"session", "system"})
	bus.Description = "D-Bus bus type (for dbus interface)."

	return &schema.Schema{AnyOf: []*schema.Schema{
		schema.OfType(schema.TypeNull),
		schema.OfType(schema.TypeString),
		{
			Type: schema.TypeObject,
			Properties: map[string]*schema.Schema{
				"interface":        iface,
				"bus":              bus,
				"name":             str("Well-known D-Bus name or content tag."),
				"target":           str("Target path (for content interface)."),
				"default-provider": str("Default content provider snap."),
				"content":          str("Content tag identifier."),
			},
			AdditionalProperties: true,
		},
	}}
}

func interfaces(s *schema.Schema, names []string, r *Report) {
	if len(names) == 0 {
		return
	}
	listed := names[:min(len(names), listedInterfaces)]
	for _, key := range []string{"plugs", "slots"} {
		if _, ok := s.Properties[key]; !ok {
			continue
		}
		s.Properties[key] = schema.MapOf(plugSlotValue(names), fmt.Sprintf(
			"Declares the snap's %s. Property names are custom identifiers.\n\nAvailable interfaces: %s...",
			key, strings.Join(listed, ", ")))
		r.add(key, len(names))
	}

	for _, key := range []string{"plugs", "slots"} {
		if p := defProperty(s, "App", key); p != nil && p.Type == schema.TypeArray {
			p.Items = schema.StringEnum(names)
			r.add("$defs/App/"+key, len(names))
		}
	}
}

func architectures(s *schema.Schema, archs []string, r *Report) {
	if len(archs) == 0 {
		return
	}
	if p := s.Properties["architectures"]; p != nil && p.Items != nil {
		for _, branch := range p.Items.AnyOf {
			if branch != nil && branch.Type == schema.TypeString {
				branch.Enum = slices.Clone(archs)
				r.add("architectures", len(archs))
				break
			}
		}
	}
	if p := s.Properties["platforms"]; p != nil {
		p.PropertyNames = &schema.Schema{Enum: slices.Clone(archs)}
		r.add("platforms", len(archs))
	}
}
