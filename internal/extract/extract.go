package extract

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/schemasync/internal/doctree"
	"git.home.luguber.info/inful/schemasync/internal/schema"
	"git.home.luguber.info/inful/schemasync/internal/typeexpr"
)

// skippedCells are table header cells that are never enum values.
var skippedCells = map[string]bool{"value": true, "values": true, "name": true}

// Extractor recovers property records from a document tree.
type Extractor struct {
	opts       Options
	levels     map[int]bool
	skipTitles map[string]bool
	keywords   []string
	fold       cases.Caser
	seq        int
}

// New returns an Extractor for opts. Empty option fields fall back to the
// defaults.
func New(opts Options) *Extractor {
	def := DefaultOptions()
	if len(opts.HeadingLevels) == 0 {
		opts.HeadingLevels = def.HeadingLevels
	}
	if opts.SkipTitles == nil {
		opts.SkipTitles = def.SkipTitles
	}
	if opts.SkipKeywords == nil {
		opts.SkipKeywords = def.SkipKeywords
	}
	if opts.HeadingMarkers == nil {
		opts.HeadingMarkers = def.HeadingMarkers
	}

	e := &Extractor{
		opts:       opts,
		levels:     make(map[int]bool, len(opts.HeadingLevels)),
		skipTitles: make(map[string]bool, len(opts.SkipTitles)),
		fold:       cases.Fold(),
	}
	for _, l := range opts.HeadingLevels {
		e.levels[l] = true
	}
	for _, t := range opts.SkipTitles {
		e.skipTitles[e.fold.String(t)] = true
	}
	for _, k := range opts.SkipKeywords {
		e.keywords = append(e.keywords, e.fold.String(k))
	}
	return e
}

// Extract runs over doc and returns one record per property path. A later
// heading with the same path replaces the earlier record.
//
// An Extractor must not be used from several goroutines at once.
func (e *Extractor) Extract(doc *doctree.Document) Properties {
	props := make(Properties)
	if doc == nil || doc.Root == nil {
		return props
	}
	e.seq = 0
	e.visit(doc.Root, props)
	return props
}

// Extract is a convenience wrapper around New(opts).Extract(doc).
func Extract(doc *doctree.Document, opts Options) Properties {
	return New(opts).Extract(doc)
}

// visit handles the boundary headings among n's children, then descends.
func (e *Extractor) visit(n *doctree.Node, props Properties) {
	for i, child := range n.Children {
		if e.isBoundary(child) {
			if path, ok := e.propertyPath(child); ok {
				prop := e.scan(path, e.scope(n.Children[i+1:]))
				e.seq++
				prop.seq = e.seq
				props[path] = prop
			}
			continue
		}
		if len(child.Children) > 0 {
			e.visit(child, props)
		}
	}
}

func (e *Extractor) isBoundary(n *doctree.Node) bool {
	return n.Kind == doctree.KindHeading && e.levels[n.Level]
}

// scope returns the siblings up to the next boundary heading.
func (e *Extractor) scope(siblings []*doctree.Node) []*doctree.Node {
	for i, s := range siblings {
		if e.isBoundary(s) {
			return siblings[:i]
		}
	}
	return siblings
}

// propertyPath returns the heading text, or false for headings that do not
// name a property.
func (e *Extractor) propertyPath(h *doctree.Node) (string, bool) {
	text := h.Text
	for _, m := range e.opts.HeadingMarkers {
		text = strings.ReplaceAll(text, m, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	folded := e.fold.String(text)
	if e.skipTitles[folded] {
		return "", false
	}
	for _, k := range e.keywords {
		if strings.Contains(folded, k) {
			return "", false
		}
	}
	return text, true
}

// scan runs the labeled-paragraph state machine over one scope.
func (e *Extractor) scan(path string, nodes []*doctree.Node) *Property {
	prop := &Property{Path: path}
	st := stateStart

	for _, n := range nodes {
		switch n.Kind {
		case doctree.KindParagraph:
			if len(n.Emphasis) > 0 {
				st = st.onLabel(parseLabel(e.fold.String(n.Emphasis[0])))
				continue
			}
			switch st {
			case stateInType:
				if text := typeText(n.Text, n.Code); text != "" {
					prop.Type = typeexpr.ParseFragment(text)
					st = st.onCapture()
				}
			case stateInDescription:
				if n.Text != "" {
					prop.Description = truncate(n.Text)
					st = st.onCapture()
				}
			}
		case doctree.KindTable:
			e.applyTable(prop, n)
		case doctree.KindDiv:
			if t := n.FirstTable(); t != nil {
				e.applyTable(prop, t)
			}
		case doctree.KindDefinitionList:
			e.applyDefinitions(prop, n.Entries)
		}
	}

	if prop.Type.IsEmpty() && len(prop.Enum) == 0 {
		prop.Type = schema.OfType(schema.TypeString)
	}
	return prop
}

// typeText picks the string handed to the type parser: the whole paragraph
// for "One of:" lists, otherwise the inline code tokens when there are any.
func typeText(text string, code []string) string {
	if strings.HasPrefix(strings.ToLower(text), "one of:") || len(code) == 0 {
		return text
	}
	return strings.Join(code, " ")
}

func (e *Extractor) applyTable(prop *Property, table *doctree.Node) {
	if len(prop.Enum) > 0 {
		return
	}
	prop.Enum = tableValues(table.Rows)
}

// tableValues collects the first word of every row's first cell, deduplicated
// and sorted.
func tableValues(rows [][]string) []string {
	var values []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" || skippedCells[strings.ToLower(cell)] {
			continue
		}
		v := strings.Fields(cell)[0]
		if !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return values
}

// applyDefinitions handles the definition-list layout. It only fills fields
// the paragraphs left unset.
func (e *Extractor) applyDefinitions(prop *Property, entries []doctree.Definition) {
	for _, d := range entries {
		switch e.fold.String(d.Term) {
		case "type":
			if !prop.Type.IsEmpty() {
				continue
			}
			text := d.Text
			if len(d.Code) > 0 {
				text = strings.Join(d.Code, " ")
			}
			if text != "" {
				prop.Type = typeexpr.ParseFragment(text)
			}
		case "description":
			if prop.Description == "" {
				prop.Description = truncate(d.Text)
			}
		}
	}
}
