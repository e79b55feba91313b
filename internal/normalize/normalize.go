// Package normalize canonicalizes surface identifiers through an alias table.
//
// Normalization is best-effort canonicalization, not validation: identifiers
// without an alias entry pass through unchanged, so no caller input is ever
// dropped or rejected here.
package normalize

// defaultAliases collapses the decorative and Unicode spellings of surface
// names seen in the wild to one canonical ASCII form.
var defaultAliases = map[string]string{
	"Canvas":     "canvas",
	"CANVAS":     "canvas",
	"ｃａｎｖａｓ":     "canvas",
	"𝕔𝕒𝕟𝕧𝕒𝕤":     "canvas",
	"Studio":     "studio",
	"STUDIO":     "studio",
	"ｓｔｕｄｉｏ":     "studio",
	"Notebook":   "notebook",
	"NOTEBOOK":   "notebook",
	"Console":    "console",
	"CONSOLE":    "console",
	"Dashboard":  "dashboard",
	"DASHBOARD":  "dashboard",
	"ｄａｓｈｂｏａｒｄ": "dashboard",
}

// Table maps surface aliases to their canonical form.
type Table map[string]string

// NewTable builds an alias table from the defaults merged with extra entries
// (extras win). Alias chains are resolved at construction so that lookup is a
// single step and Normalize is idempotent.
func NewTable(extra map[string]string) Table {
	t := make(Table, len(defaultAliases)+len(extra))
	for alias, canonical := range defaultAliases {
		t[alias] = canonical
	}
	for alias, canonical := range extra {
		t[alias] = canonical
	}

	for alias, canonical := range t {
		seen := map[string]bool{alias: true}
		for {
			next, ok := t[canonical]
			if !ok || next == canonical || seen[canonical] {
				break
			}
			seen[canonical] = true
			canonical = next
		}
		if alias == canonical {
			delete(t, alias)
			continue
		}
		t[alias] = canonical
	}
	return t
}

// Normalize returns the canonical form of raw. Unknown identifiers are
// returned unchanged; the empty string normalizes to itself.
func (t Table) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	if canonical, ok := t[raw]; ok {
		return canonical
	}
	return raw
}

// Surface normalizes raw against the default alias table.
func Surface(raw string) string {
	return Default.Normalize(raw)
}

// Default is the alias table built from the compiled-in defaults.
var Default = NewTable(nil)
