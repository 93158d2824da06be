package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFields(t *testing.T) {
	fields, err := NormalizeFields(
		[]any{
			map[string]any{"kind": "field", "table": "customer", "column": "email"},
			map[string]any{"kind": "list", "field": "notes"},
		},
		[]any{
			map[string]any{"table": "customer", "column": "email"}, // duplicate, implicit kind
			map[string]any{"kind": "field", "table": "orders", "column": "total", "as": "order_totals"},
		},
	)
	require.NoError(t, err)

	require.Len(t, fields, 3)
	assert.Equal(t, "field:customer.email", fields[0].Token)
	assert.Equal(t, "list:notes", fields[1].Token)
	assert.Equal(t, "field:orders.total", fields[2].Token)
	assert.Equal(t, "order_totals", fields[2].Alias)
}

func TestNormalizeFieldsRejectsLegacyStringForm(t *testing.T) {
	_, err := NormalizeFields([]any{"customer.email"}, nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "re-save")
}

func TestNormalizeFieldsRejectsNonObjects(t *testing.T) {
	_, err := NormalizeFields([]any{42}, nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestNormalizeFieldsRejectsUnknownKind(t *testing.T) {
	_, err := NormalizeFields([]any{map[string]any{"kind": "window", "table": "t", "column": "c"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field descriptor kind "window"`)
}

func TestNormalizeFieldsValidatesIdentifiers(t *testing.T) {
	cases := []map[string]any{
		{"kind": "field", "table": "1bad", "column": "c"},
		{"kind": "field", "table": "t", "column": "c;drop"},
		{"kind": "field", "table": "t", "column": "c", "as": "a b"},
		{"kind": "list", "field": ""},
		{"kind": "list", "field": "no-dashes"},
	}
	for _, raw := range cases {
		_, err := NormalizeFields([]any{raw}, nil)
		assert.Error(t, err, "%v", raw)
		assert.True(t, IsConfigError(err))
	}
}

func TestNormalizeFieldsEmptyIsError(t *testing.T) {
	_, err := NormalizeFields(nil, []any{})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "no fields selected")
}
