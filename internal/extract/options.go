// Package extract turns a documentation page into property records. Every
// qualifying heading names one property path; the nodes that follow it, up to
// the next heading of a boundary level, describe the property's type,
// description and allowed values.
package extract

// Options controls which headings open a property.
type Options struct {
	// HeadingLevels lists the heading levels that open (and close) a scope.
	HeadingLevels []int `yaml:"heading_levels"`
	// SkipTitles are section titles that never name a property. Matched
	// case-insensitively against the whole heading.
	SkipTitles []string `yaml:"skip_titles"`
	// SkipKeywords reject any heading containing one of them.
	SkipKeywords []string `yaml:"skip_keywords"`
	// HeadingMarkers are removed from heading text (permalink glyphs).
	HeadingMarkers []string `yaml:"heading_markers"`
}

// DefaultSkipTitles are the section titles of the snapcraft.yaml reference.
var DefaultSkipTitles = []string{
	"top-level keys",
	"platform keys",
	"architecture keys",
	"app keys",
	"part keys",
	"socket keys",
	"hook keys",
	"component keys",
	"content plug keys",
	"your tracker settings",
	"additional links",
	"permissions keys",
}

// DefaultSkipKeywords mark headings that introduce examples or notes.
var DefaultSkipKeywords = []string{"example", "see also", "note"}

// DefaultOptions returns the options used for the snapcraft.yaml reference.
func DefaultOptions() Options {
	return Options{
		HeadingLevels:  []int{2, 3, 4},
		SkipTitles:     append([]string(nil), DefaultSkipTitles...),
		SkipKeywords:   append([]string(nil), DefaultSkipKeywords...),
		HeadingMarkers: []string{"¶"},
	}
}
