package doctree

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ParseMarkdown renders a Markdown page to HTML and parses the result, so
// locally maintained reference pages go through the same extraction as the
// published documentation. Tables and definition lists are enabled.
func ParseMarkdown(src []byte) (*Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.DefinitionList),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(placeholderText{}, 100)),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return ParseHTML(&buf)
}

// inlineElements are the HTML tags kept as markup inside Markdown text.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "br": true, "code": true, "del": true,
	"em": true, "i": true, "img": true, "ins": true, "kbd": true, "mark": true,
	"q": true, "s": true, "samp": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "u": true, "var": true,
}

var inlineTag = regexp.MustCompile(`^</?([A-Za-z][A-Za-z0-9-]*)(\s[^>]*)?/?>$`)

// placeholderText turns inline raw HTML that is not a known inline element,
// such as the <app-name> in "apps.<app-name>.command", back into literal
// text. The HTML renderer would otherwise omit it.
type placeholderText struct{}

func (placeholderText) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var raws []*ast.RawHTML
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if raw, ok := n.(*ast.RawHTML); ok && entering {
			raws = append(raws, raw)
		}
		return ast.WalkContinue, nil
	})

	for _, raw := range raws {
		var lit bytes.Buffer
		for i := 0; i < raw.Segments.Len(); i++ {
			seg := raw.Segments.At(i)
			lit.Write(seg.Value(source))
		}
		m := inlineTag.FindSubmatch(lit.Bytes())
		if m == nil || inlineElements[strings.ToLower(string(m[1]))] {
			continue
		}
		parent := raw.Parent()
		parent.ReplaceChild(parent, raw, ast.NewString(lit.Bytes()))
	}
}
