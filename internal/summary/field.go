package summary

import (
	"fmt"

	"tableadmin/internal/sqlutil"
)

// Field descriptor kinds.
const (
	KindField = "field"
	KindList  = "list"
)

// FieldDescriptor is one normalized requested field. Exactly one of the
// two shapes is populated, discriminated by Kind:
//
//	KindField: Table, Column and optional Alias
//	KindList:  ListField
type FieldDescriptor struct {
	Kind   string
	Table  string
	Column string
	Alias  string

	ListField string

	// Token is the stable dedupe / re-mapping key:
	// "field:<table>.<column>" or "list:<field>".
	Token string
}

// NormalizeFields validates raw descriptors from the summary and detail
// request lists, merges them, and deduplicates by token preserving
// first-seen order. Raw descriptors must be decoded JSON objects; the
// legacy string form is rejected with a re-save instruction.
func NormalizeFields(summaryFields, detailFields []any) ([]FieldDescriptor, error) {
	merged := make([]FieldDescriptor, 0, len(summaryFields)+len(detailFields))
	seen := make(map[string]struct{})

	for _, raw := range append(append([]any{}, summaryFields...), detailFields...) {
		desc, err := normalizeField(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[desc.Token]; dup {
			continue
		}
		seen[desc.Token] = struct{}{}
		merged = append(merged, desc)
	}

	if len(merged) == 0 {
		return nil, configErrorf("no fields selected")
	}
	return merged, nil
}

func normalizeField(raw any) (FieldDescriptor, error) {
	switch v := raw.(type) {
	case map[string]any:
		return normalizeObjectField(v)
	case string:
		return FieldDescriptor{}, configErrorf(
			"legacy string field descriptor %q is not supported; re-save this report with object field descriptors", v)
	default:
		return FieldDescriptor{}, configErrorf("field descriptor must be an object, got %T", raw)
	}
}

func normalizeObjectField(obj map[string]any) (FieldDescriptor, error) {
	kind, err := stringValue(obj, "kind")
	if err != nil {
		return FieldDescriptor{}, err
	}
	if kind == "" {
		kind = KindField
	}

	switch kind {
	case KindList:
		field, err := stringValue(obj, "field")
		if err != nil {
			return FieldDescriptor{}, err
		}
		if _, err := sqlutil.RequireIdentifier(field, "list field"); err != nil {
			return FieldDescriptor{}, configErrorf("%s", err)
		}
		return FieldDescriptor{
			Kind:      KindList,
			ListField: field,
			Token:     "list:" + field,
		}, nil

	case KindField:
		table, err := stringValue(obj, "table")
		if err != nil {
			return FieldDescriptor{}, err
		}
		column, err := stringValue(obj, "column")
		if err != nil {
			return FieldDescriptor{}, err
		}
		alias, err := stringValue(obj, "as")
		if err != nil {
			return FieldDescriptor{}, err
		}
		if _, err := sqlutil.RequireIdentifier(table, "table"); err != nil {
			return FieldDescriptor{}, configErrorf("%s", err)
		}
		if _, err := sqlutil.RequireIdentifier(column, "column"); err != nil {
			return FieldDescriptor{}, configErrorf("%s", err)
		}
		if alias != "" {
			if _, err := sqlutil.RequireIdentifier(alias, "alias"); err != nil {
				return FieldDescriptor{}, configErrorf("%s", err)
			}
		}
		return FieldDescriptor{
			Kind:   KindField,
			Table:  table,
			Column: column,
			Alias:  alias,
			Token:  fmt.Sprintf("field:%s.%s", table, column),
		}, nil

	default:
		return FieldDescriptor{}, configErrorf("unknown field descriptor kind %q", kind)
	}
}

func stringValue(obj map[string]any, key string) (string, error) {
	value, ok := obj[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", configErrorf("field descriptor key %q must be a string, got %T", key, value)
	}
	return s, nil
}
