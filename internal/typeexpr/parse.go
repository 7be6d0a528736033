package typeexpr

import (
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/schemasync/internal/schema"
)

var (
	oneOfPattern   = regexp.MustCompile(`(?i)^one of:\s*\[([^\]]+)\]`)
	quotedLiterals = regexp.MustCompile(`'([^']+)'`)
)

// Parse parses a type description. Surrounding whitespace is ignored.
func Parse(s string) Expr {
	s = strings.TrimSpace(s)
	if e, ok := parseEnumLiteral(s); ok {
		return e
	}

	parts := splitTopLevel(s, '|')
	if len(parts) == 1 {
		return parseBranch(parts[0])
	}
	u := Union{Branches: make([]Expr, 0, len(parts))}
	for _, p := range parts {
		u.Branches = append(u.Branches, parseBranch(p))
	}
	return u
}

// ParseFragment parses s and converts the result into a schema fragment.
func ParseFragment(s string) *schema.Schema {
	return Parse(s).Fragment()
}

func parseEnumLiteral(s string) (EnumLiteral, bool) {
	m := oneOfPattern.FindStringSubmatch(s)
	if m == nil {
		return EnumLiteral{}, false
	}
	var values []string
	for _, lit := range quotedLiterals.FindAllStringSubmatch(m[1], -1) {
		if !slices.Contains(values, lit[1]) {
			values = append(values, lit[1])
		}
	}
	if len(values) == 0 {
		return EnumLiteral{}, false
	}
	return EnumLiteral{Values: values}, true
}

// splitTopLevel splits s on sep, ignoring separators nested inside brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// parseBranch runs the recursive-descent parser over one union branch. Any
// syntax error turns the whole branch into Unknown.
func parseBranch(raw string) Expr {
	p := &parser{toks: lex(raw)}
	e, ok := p.parseSingle()
	if !ok || p.peek().kind != tokEOF {
		return Unknown{Raw: strings.TrimSpace(raw)}
	}
	return e
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLBrack
	tokRBrack
	tokComma
	tokPipe
)

type token struct {
	kind tokenKind
	text string
}

// lex splits a type description into tokens. Backticks from inline code
// formatting are treated as whitespace.
func lex(s string) []token {
	var toks []token
	var ident strings.Builder
	flush := func() {
		if ident.Len() > 0 {
			toks = append(toks, token{kind: tokIdent, text: ident.String()})
			ident.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '[':
			flush()
			toks = append(toks, token{kind: tokLBrack})
		case ']':
			flush()
			toks = append(toks, token{kind: tokRBrack})
		case ',':
			flush()
			toks = append(toks, token{kind: tokComma})
		case '|':
			flush()
			toks = append(toks, token{kind: tokPipe})
		case ' ', '\t', '\n', '\r', '`':
			flush()
		default:
			ident.WriteRune(r)
		}
	}
	flush()
	return append(toks, token{kind: tokEOF})
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// parseUnion: single ('|' single)*
func (p *parser) parseUnion() (Expr, bool) {
	first, ok := p.parseSingle()
	if !ok {
		return nil, false
	}
	if p.peek().kind != tokPipe {
		return first, true
	}
	u := Union{Branches: []Expr{first}}
	for p.peek().kind == tokPipe {
		p.next()
		b, ok := p.parseSingle()
		if !ok {
			return nil, false
		}
		u.Branches = append(u.Branches, b)
	}
	return u, true
}

// parseSingle: IDENT ('[' union (',' union)* ']')?
func (p *parser) parseSingle() (Expr, bool) {
	head := p.next()
	if head.kind != tokIdent {
		return nil, false
	}
	name := strings.ToLower(head.text)

	if p.peek().kind != tokLBrack {
		if _, known := basicTypes[name]; known {
			return Basic{Name: name}, true
		}
		return Unknown{Raw: head.text}, true
	}

	p.next()
	var args []Expr
	for {
		arg, ok := p.parseUnion()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if p.next().kind != tokRBrack {
		return nil, false
	}

	switch {
	case name == "dict" && len(args) == 2:
		return Dict{Key: args[0], Value: args[1]}, true
	case name == "list" && len(args) == 1:
		return List{Elem: args[0]}, true
	case name == "set" && len(args) == 1:
		return Set{Elem: args[0]}, true
	default:
		return Unknown{Raw: head.text}, true
	}
}
