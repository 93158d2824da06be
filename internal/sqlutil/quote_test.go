package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireIdentifier(t *testing.T) {
	t.Run("accepts plain identifiers", func(t *testing.T) {
		for _, name := range []string{"users", "_private", "Order2", "sort_order"} {
			got, err := RequireIdentifier(name, "table")
			require.NoError(t, err)
			assert.Equal(t, name, got)
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := RequireIdentifier("", "column")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column name must not be empty")
	})

	t.Run("rejects malformed", func(t *testing.T) {
		for _, name := range []string{"1table", "a-b", `a"b`, "a b", "a;drop"} {
			_, err := RequireIdentifier(name, "table")
			assert.Error(t, err, name)
		}
	})
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdentifier("users"))
	assert.Equal(t, `"weird""name"`, QuoteIdentifier(`weird"name`))
}

func TestQuoteQualified(t *testing.T) {
	assert.Equal(t, `"orders"."customer_id"`, QuoteQualified("orders", "customer_id"))
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `'it''s'`, QuoteString("it's"))
}
