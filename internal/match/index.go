// Package match resolves incoming listings against the rows of the listing
// sheet: exact building-name lookup first, then configured aliases, then a
// fuzzy name comparison penalized by area deviation. The index is built once
// per reconciliation pass from a frozen snapshot; writes queued during the
// pass are not visible to it.
package match

import (
	"strings"
)

// RowInfo is the slice of a sheet row the matcher needs.
type RowInfo struct {
	Position     int
	BuildingName string
	AreaSqm      *float64
}

// Index is the per-pass lookup over the sheet snapshot. Keys are the
// building names trimmed of surrounding whitespace only; case and interior
// spacing are preserved because exact means exact.
type Index struct {
	byName map[string][]RowInfo
	rows   []RowInfo
}

// BuildIndex builds the lookup from snapshot rows, keeping snapshot order.
func BuildIndex(rows []RowInfo) *Index {
	idx := &Index{byName: make(map[string][]RowInfo, len(rows))}
	for _, r := range rows {
		key := strings.TrimSpace(r.BuildingName)
		if key == "" {
			continue
		}
		r.BuildingName = key
		idx.byName[key] = append(idx.byName[key], r)
		idx.rows = append(idx.rows, r)
	}
	return idx
}

// Exact returns the rows whose building name equals the trimmed input.
func (idx *Index) Exact(name string) []RowInfo {
	return idx.byName[strings.TrimSpace(name)]
}

// All returns every indexed row in snapshot order.
func (idx *Index) All() []RowInfo {
	return idx.rows
}
