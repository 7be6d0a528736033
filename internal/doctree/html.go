package doctree

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// skippedElements never contribute text or structure.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

// ParseHTML parses a rendered page. The tree is rooted at the first <main>
// element, else the first <article>, else the whole document.
func ParseHTML(r io.Reader) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	root := findElement(doc, "main")
	if root == nil {
		root = findElement(doc, "article")
	}
	if root == nil {
		root = doc
	}

	return &Document{Root: convert(root)}, nil
}

// ParseHTMLDocument parses a page keeping everything outside the main
// content, including navigation and sidebars.
func ParseHTMLDocument(r io.Reader) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return &Document{Root: convert(doc)}, nil
}

// Tables returns every table in the document in order.
func (d *Document) Tables() []*Node {
	var out []*Node
	Walk(d.Root, func(n *Node) bool {
		if n.Kind == KindTable {
			out = append(out, n)
		}
		return true
	})
	return out
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func convert(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		text := normalize(n.Data)
		if text == "" {
			return nil
		}
		return &Node{Kind: KindText, Text: text}
	case html.ElementNode, html.DocumentNode:
	default:
		return nil
	}
	if skippedElements[n.Data] {
		return nil
	}

	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return &Node{
			Kind:  KindHeading,
			Tag:   n.Data,
			Level: int(n.Data[1] - '0'),
			Text:  extractText(n),
		}
	case "p":
		return &Node{
			Kind:     KindParagraph,
			Tag:      n.Data,
			Text:     extractText(n),
			Emphasis: collectText(n, "strong"),
			Code:     collectText(n, "code"),
		}
	case "table":
		return &Node{Kind: KindTable, Tag: n.Data, Rows: tableRows(n)}
	case "dl":
		return &Node{Kind: KindDefinitionList, Tag: n.Data, Entries: definitions(n)}
	}

	out := &Node{Kind: KindContainer, Tag: n.Data}
	if n.Data == "div" {
		out.Kind = KindDiv
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c); child != nil {
			out.Children = append(out.Children, child)
		}
	}
	return out
}

// extractText returns the text content of n with whitespace collapsed.
func extractText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalize(b.String())
}

// normalize applies NFKC (turning non-breaking spaces into plain ones) and
// collapses whitespace runs.
func normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// collectText returns the non-empty text of every descendant element named tag.
func collectText(n *html.Node, tag string) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data == tag {
				if text := extractText(c); text != "" {
					out = append(out, text)
				}
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "tr" {
				walk(c)
				continue
			}
			var cells []string
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					cells = append(cells, extractText(cell))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}
	walk(table)
	return rows
}

// definitions pairs every direct <dt> child with the next <dd> sibling.
func definitions(dl *html.Node) []Definition {
	var out []Definition
	for dt := dl.FirstChild; dt != nil; dt = dt.NextSibling {
		if dt.Type != html.ElementNode || dt.Data != "dt" {
			continue
		}
		dd := nextSiblingElement(dt, "dd")
		if dd == nil {
			continue
		}
		out = append(out, Definition{
			Term: extractText(dt),
			Text: extractText(dd),
			Code: collectText(dd, "code"),
		})
	}
	return out
}

func nextSiblingElement(n *html.Node, tag string) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == tag {
			return s
		}
	}
	return nil
}
