package normalize

import "strings"

// PartialRule maps a substring occurring anywhere in the input to a canonical
// value. Checked only after exact synonym lookup misses.
type PartialRule struct {
	Contains string
	Canon    string
}

// Table is a categorical synonym table: canonical values, their exact
// synonyms and optional partial-substring rules. Tables are immutable after
// construction; reconfiguring means building a new Table.
type Table struct {
	exact    map[string]string
	partials []PartialRule
	def      string
}

// NewTable builds a synonym table. The synonyms map is keyed by canonical
// value; each canonical value also resolves to itself. def is returned for
// unresolved input ("" means no default).
func NewTable(synonyms map[string][]string, partials []PartialRule, def string) *Table {
	exact := make(map[string]string, len(synonyms)*4)
	for canon, syns := range synonyms {
		exact[fold(canon)] = canon
		for _, s := range syns {
			exact[fold(s)] = canon
		}
	}
	rules := make([]PartialRule, len(partials))
	for i, p := range partials {
		rules[i] = PartialRule{Contains: fold(p.Contains), Canon: p.Canon}
	}
	return &Table{exact: exact, partials: rules, def: def}
}

// Resolve maps raw input to a canonical value. The second return is false
// when the input did not resolve and no default is configured; raw input is
// never passed through.
func (t *Table) Resolve(raw string) (string, bool) {
	s := fold(raw)
	if s == "" {
		return "", false
	}
	if canon, ok := t.exact[s]; ok {
		return canon, true
	}
	for _, p := range t.partials {
		if strings.Contains(s, p.Contains) {
			return p.Canon, true
		}
	}
	if t.def != "" {
		return t.def, true
	}
	return "", false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
