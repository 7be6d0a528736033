package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/schemasync/internal/doctree"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

var (
	// pluginHref matches plugin page links such as "flutter_plugin/" or
	// "../plugins/dotnet_v2_plugin".
	pluginHref = regexp.MustCompile(`(?i)(?:^|/)([a-z0-9_]+)_plugin/?$`)
	baseName   = regexp.MustCompile(`^(core\d*|bare|devel)$`)
	// registryKey matches the keys of the extension registry dictionary.
	registryKey = regexp.MustCompile(`"([a-z0-9-]+)"\s*:`)
)

// maxPluginNameLen bounds plugin names; longer matches are not plugin pages.
const maxPluginNameLen = 30

// interfaceHeaderCells are header cells of the interface tables.
var interfaceHeaderCells = map[string]bool{"interface": true, "name": true}

// CheckMinimum fails when fewer than minimum items of kind were found.
func CheckMinimum(kind string, count, minimum int, detail string) error {
	if count >= minimum {
		return nil
	}
	msg := fmt.Sprintf("Parsed %d %s, expected at least %d", count, kind, minimum)
	if detail != "" {
		msg += " " + detail
	}
	return ferrors.ValidationError(msg+". Documentation structure may have changed.").
		WithContext("category", kind).
		WithContext("count", count).
		WithContext("minimum", minimum).
		Build()
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ParsePlugins returns the plugin names linked from the plugins index page.
func ParsePlugins(page []byte, minimum int) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryExtraction, "parse plugins page").Build()
	}

	found := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if m := pluginHref.FindStringSubmatch(getAttr(n, "href")); m != nil {
				name := strings.ReplaceAll(strings.ToLower(m[1]), "_", "-")
				if name != "" && len(name) < maxPluginNameLen {
					found[name] = struct{}{}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	names := sortedSet(found)
	if err := CheckMinimum("plugins", len(names), minimum, ""); err != nil {
		return nil, err
	}
	return names, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// firstCells returns the first cell of every table row with at least
// minCells cells, anywhere in the page.
func firstCells(page []byte, minCells int) ([]string, error) {
	doc, err := doctree.ParseHTMLDocument(bytes.NewReader(page))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryExtraction, "parse page").Build()
	}
	var cells []string
	for _, t := range doc.Tables() {
		for _, row := range t.Rows {
			if len(row) >= minCells {
				cells = append(cells, row[0])
			}
		}
	}
	return cells, nil
}

// ParseBases returns the base snap names listed in the bases page tables.
func ParseBases(page []byte, minimum int) ([]string, error) {
	cells, err := firstCells(page, 1)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{})
	for _, c := range cells {
		if baseName.MatchString(c) {
			found[c] = struct{}{}
		}
	}
	names := sortedSet(found)
	if err := CheckMinimum("bases", len(names), minimum, ""); err != nil {
		return nil, err
	}
	return names, nil
}

// ParseInterfaces returns the interface names from the supported interfaces
// tables. Rows need a name and at least one more column.
func ParseInterfaces(page []byte, minimum int) ([]string, error) {
	cells, err := firstCells(page, 2)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{})
	for _, c := range cells {
		if c == "" || interfaceHeaderCells[strings.ToLower(c)] {
			continue
		}
		found[c] = struct{}{}
	}
	names := sortedSet(found)
	if err := CheckMinimum("interfaces", len(names), minimum, ""); err != nil {
		return nil, err
	}
	return names, nil
}

// ExtensionSources holds the two source artifacts extension names come from:
// the registry module of current snapcraft releases and the JSON schema of
// legacy (core18/core20) projects.
type ExtensionSources struct {
	Registry     []byte
	LegacySchema []byte
}

// ExtensionReport breaks the extension list down by origin.
type ExtensionReport struct {
	Names  []string
	Modern int
	Legacy int
}

// ParseExtensions merges the extension names of both artifacts.
func ParseExtensions(src ExtensionSources, minimum int) (ExtensionReport, error) {
	modern := make(map[string]struct{})
	for _, m := range registryKey.FindAllSubmatch(src.Registry, -1) {
		modern[string(m[1])] = struct{}{}
	}

	var legacyDoc any
	if err := json.Unmarshal(src.LegacySchema, &legacyDoc); err != nil {
		return ExtensionReport{}, ferrors.WrapError(err, ferrors.CategoryExtraction, "decode legacy schema").Fatal().Build()
	}
	legacy := make(map[string]struct{})
	collectLegacyExtensions(legacyDoc, "", legacy)

	all := make(map[string]struct{}, len(modern)+len(legacy))
	for k := range modern {
		all[k] = struct{}{}
	}
	for k := range legacy {
		all[k] = struct{}{}
	}

	report := ExtensionReport{Names: sortedSet(all), Modern: len(modern), Legacy: len(legacy)}
	detail := fmt.Sprintf("(modern: %d, legacy: %d)", report.Modern, report.Legacy)
	if err := CheckMinimum("extensions", len(report.Names), minimum, detail); err != nil {
		return ExtensionReport{}, err
	}
	return report, nil
}

// collectLegacyExtensions gathers string enum values found under any key path
// mentioning "extension".
func collectLegacyExtensions(node any, path string, out map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		if enum, ok := v["enum"].([]any); ok && strings.Contains(strings.ToLower(path), "extension") {
			for _, e := range enum {
				if s, ok := e.(string); ok {
					out[s] = struct{}{}
				}
			}
		}
		for key, child := range v {
			collectLegacyExtensions(child, path+"."+key, out)
		}
	case []any:
		for _, child := range v {
			collectLegacyExtensions(child, path, out)
		}
	}
}
