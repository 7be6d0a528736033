package extract

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"git.home.luguber.info/inful/schemasync/internal/schema"
)

const (
	maxDescriptionRunes = 500
	truncatedRunes      = 497
)

// Property is everything recovered about one documented field.
type Property struct {
	Path        string         `json:"path"`
	Type        *schema.Schema `json:"type,omitempty"`
	Description string         `json:"description,omitempty"`
	Enum        []string       `json:"enum,omitempty"`

	// seq is the position of the property's heading in the document.
	seq int
}

// Schema converts the record into a schema fragment. Enum values win over the
// parsed type; a property with neither is a plain string.
func (p *Property) Schema() *schema.Schema {
	var out *schema.Schema
	switch {
	case len(p.Enum) > 0:
		out = schema.StringEnum(p.Enum)
	case !p.Type.IsEmpty():
		out = p.Type.Clone()
	default:
		out = schema.OfType(schema.TypeString)
	}
	if p.Description != "" {
		out.Description = p.Description
	}
	return out
}

// Properties maps a property path to its record.
type Properties map[string]*Property

// Paths returns the property paths in sorted order.
func (p Properties) Paths() []string {
	paths := make([]string, 0, len(p))
	for k := range p {
		paths = append(paths, k)
	}
	slices.Sort(paths)
	return paths
}

// DocumentOrder returns the property paths in the order their headings
// appear. Records built by hand, without a position, sort first by path.
func (p Properties) DocumentOrder() []string {
	paths := p.Paths()
	slices.SortStableFunc(paths, func(a, b string) int {
		return cmp.Compare(p[a].seq, p[b].seq)
	})
	return paths
}

// truncate shortens descriptions longer than maxDescriptionRunes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxDescriptionRunes {
		return s
	}
	return string([]rune(s)[:truncatedRunes]) + "..."
}
