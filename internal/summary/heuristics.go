package summary

import (
	"sort"

	"tableadmin/internal/introspection"
)

// orderColumnCandidates is the fixed priority list for choosing the
// ORDER BY column inside aggregate subqueries. If none are present the
// aggregate order is left unspecified.
var orderColumnCandidates = []string{"item_index", "idx", "sort_order", "position", "order", "id"}

// listValueExcluded holds bookkeeping columns never picked by the
// alphabetical value-column fallback.
var listValueExcluded = map[string]struct{}{
	"parent_id":  {},
	"id":         {},
	"item_index": {},
	"idx":        {},
	"sort_order": {},
	"position":   {},
	"order":      {},
	"created_at": {},
	"updated_at": {},
}

// orderColumn picks the aggregate ordering column for a table. The
// second return is false when no candidate is present.
func orderColumn(table *introspection.Table) (string, bool) {
	for _, candidate := range orderColumnCandidates {
		if table.HasColumn(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// listValueColumn picks the value column for a list table. Named
// candidates are tried in priority order with the requested field name
// slotted after "label"; failing those, the alphabetically-first column
// outside the bookkeeping set wins. No usable column is a
// configuration error.
func listValueColumn(table *introspection.Table, fieldName string) (string, error) {
	candidates := []string{"item_value", "value", "name", "label", fieldName, "text", "description"}
	for _, candidate := range candidates {
		if table.HasColumn(candidate) {
			return candidate, nil
		}
	}

	var remaining []string
	for _, col := range table.Columns {
		if _, excluded := listValueExcluded[col.Name]; excluded {
			continue
		}
		remaining = append(remaining, col.Name)
	}
	if len(remaining) == 0 {
		return "", configErrorf("list table %q has no usable value column", table.Name)
	}
	sort.Strings(remaining)
	return remaining[0], nil
}
