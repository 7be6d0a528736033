package doctree

import (
	"bytes"
	"net/url"
	"path"
	"strings"
)

// Format selects the parser for a document.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// DetectFormat picks a format from the extension of a URL or path. Anything
// that is not Markdown is treated as HTML.
func DetectFormat(location string) Format {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatHTML
	}
}

// Parse parses data retrieved from location using the detected format.
func Parse(location string, data []byte) (*Document, error) {
	if DetectFormat(location) == FormatMarkdown {
		return ParseMarkdown(data)
	}
	return ParseHTML(bytes.NewReader(data))
}
