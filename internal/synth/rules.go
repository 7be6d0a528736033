// Package synth groups extracted properties by path and assembles the JSON
// Schema document: one $defs entry per nested object type and a top-level
// property map that references them.
package synth

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/schemasync/internal/extract"
	"git.home.luguber.info/inful/schemasync/internal/schema"
)

// Category names a bucket of fields that share a parent object.
type Category string

const (
	TopLevel      Category = "top-level"
	Apps          Category = "apps"
	Parts         Category = "parts"
	Platforms     Category = "platforms"
	Architectures Category = "architectures"
	Sockets       Category = "sockets"
	Hooks         Category = "hooks"
	Components    Category = "components"
	Plugs         Category = "plugs"
	Slots         Category = "slots"
	Permissions   Category = "permissions"
	Lint          Category = "lint"

	// Skip drops every path under the rule's prefix.
	Skip Category = "skip"
)

// ruleCategories are the categories a rule may name.
var ruleCategories = map[Category]bool{
	Apps: true, Parts: true, Platforms: true, Architectures: true,
	Sockets: true, Hooks: true, Components: true, Plugs: true, Slots: true,
	Permissions: true, Lint: true, Skip: true,
}

// Rule assigns paths starting with Prefix to Category.
type Rule struct {
	Prefix   string   `yaml:"prefix"`
	Category Category `yaml:"category"`
}

// DefaultRules returns the snapcraft.yaml path rules. Rules are tried in
// order and the first match wins, so longer prefixes precede the prefixes
// they extend.
func DefaultRules() []Rule {
	return []Rule{
		{"apps.<app-name>.sockets.<socket-name>.", Sockets},
		{"sockets.<socket-name>.", Sockets},
		{"apps.<app-name>.", Apps},
		{"parts.<part-name>.permissions.<permission>.", Permissions},
		{"parts.<part-name>.", Parts},
		{"platforms.<platform-name>.", Platforms},
		{"architectures.<architecture>.", Architectures},
		{"hooks.<hook-type>.", Hooks},
		{"components.<component-name>.hooks.<hook-type>.", Skip},
		{"components.<component-name>.", Components},
		{"plugs.<plug-name>.", Plugs},
		{"slots.<slot-name>.", Slots},
		{"lint.", Lint},
	}
}

// ValidateRules checks that every rule names a known category and that no
// rule is shadowed by an earlier, shorter prefix of it. Under first-match
// semantics such a rule could never fire.
func ValidateRules(rules []Rule) error {
	for i, r := range rules {
		if r.Prefix == "" {
			return fmt.Errorf("rule %d: empty prefix", i)
		}
		if !ruleCategories[r.Category] {
			return fmt.Errorf("rule %d (%s): invalid category %q", i, r.Prefix, r.Category)
		}
		for _, earlier := range rules[:i] {
			if strings.HasPrefix(r.Prefix, earlier.Prefix) {
				return fmt.Errorf("rule %q is shadowed by earlier rule %q", r.Prefix, earlier.Prefix)
			}
		}
	}
	return nil
}

// Match returns the first rule whose prefix starts path.
func Match(path string, rules []Rule) (Rule, bool) {
	for _, r := range rules {
		if strings.HasPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return Rule{}, false
}

// Buckets maps a category to its fields, keyed by name with the prefix
// stripped.
type Buckets map[Category]map[string]*schema.Schema

// Categorize sorts properties into buckets. Paths that still contain a
// placeholder after their prefix is stripped are dropped, as are paths
// covered by a Skip rule. When two paths land on the same field, the one
// whose heading comes later in the document wins.
func Categorize(props extract.Properties, rules []Rule) Buckets {
	buckets := make(Buckets)
	for _, path := range props.DocumentOrder() {
		cat, name, ok := Place(path, rules)
		if !ok {
			continue
		}
		if buckets[cat] == nil {
			buckets[cat] = make(map[string]*schema.Schema)
		}
		buckets[cat][name] = props[path].Schema()
	}
	return buckets
}

// Place returns the bucket and field name for path, or false when the path is
// dropped.
func Place(path string, rules []Rule) (Category, string, bool) {
	cat, name := TopLevel, path
	if r, ok := Match(path, rules); ok {
		if r.Category == Skip {
			return "", "", false
		}
		cat, name = r.Category, strings.TrimPrefix(path, r.Prefix)
	}
	if name == "" || hasPlaceholder(name) {
		return "", "", false
	}
	return cat, name, true
}

// hasPlaceholder reports whether any dotted segment is a <placeholder>.
func hasPlaceholder(path string) bool {
	for _, seg := range strings.Split(path, ".") {
		if len(seg) > 2 && strings.HasPrefix(seg, "<") && strings.HasSuffix(seg, ">") {
			return true
		}
	}
	return false
}
