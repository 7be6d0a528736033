// Package doctree models a rendered documentation page as a tree of tagged
// nodes. Only the node kinds the extractor reasons about are distinguished;
// every other element becomes a Container so headings nested inside sections
// are still reachable.
package doctree

// Kind tags a Node.
type Kind int

const (
	KindContainer Kind = iota
	KindHeading
	KindParagraph
	KindTable
	KindDiv
	KindDefinitionList
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindTable:
		return "table"
	case KindDiv:
		return "div"
	case KindDefinitionList:
		return "definition-list"
	case KindText:
		return "text"
	default:
		return "container"
	}
}

// Node is one element (or text run) of the document.
//
// Which fields are populated depends on Kind:
//   - Heading: Level, Text
//   - Paragraph: Text, Emphasis, Code
//   - Table: Rows
//   - DefinitionList: Entries
//   - Div, Container: Children (and Text)
//   - Text: Text
type Node struct {
	Kind Kind
	Tag  string

	Level    int
	Text     string
	Emphasis []string
	Code     []string
	Rows     [][]string
	Entries  []Definition

	Children []*Node
}

// Definition is one term of a definition list with the definition block that
// follows it.
type Definition struct {
	Term string
	Text string
	Code []string
}

// Document is a parsed page. Root is the main content element when the page
// has one.
type Document struct {
	Root *Node
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// FirstTable returns the first table at or below n, or nil.
func (n *Node) FirstTable() *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Kind == KindTable {
			found = c
			return false
		}
		return true
	})
	return found
}

// Headings returns every heading in the document in order.
func (d *Document) Headings() []*Node {
	var out []*Node
	Walk(d.Root, func(n *Node) bool {
		if n.Kind == KindHeading {
			out = append(out, n)
		}
		return true
	})
	return out
}
