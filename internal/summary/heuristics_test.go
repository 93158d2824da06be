package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableadmin/internal/introspection"
)

func TestOrderColumnPriority(t *testing.T) {
	t.Run("item_index beats id", func(t *testing.T) {
		table := introspection.NewTable("l", "id", "item_index", "value")
		col, ok := orderColumn(&table)
		require.True(t, ok)
		assert.Equal(t, "item_index", col)
	})

	t.Run("falls through candidates in order", func(t *testing.T) {
		table := introspection.NewTable("l", "sort_order", "position")
		col, ok := orderColumn(&table)
		require.True(t, ok)
		assert.Equal(t, "sort_order", col)
	})

	t.Run("absent means unordered", func(t *testing.T) {
		table := introspection.NewTable("l", "value")
		_, ok := orderColumn(&table)
		assert.False(t, ok)
	})
}

func TestListValueColumnPriority(t *testing.T) {
	t.Run("item_value wins", func(t *testing.T) {
		table := introspection.NewTable("l", "parent_id", "item_value", "name")
		col, err := listValueColumn(&table, "notes")
		require.NoError(t, err)
		assert.Equal(t, "item_value", col)
	})

	t.Run("field name slots after label", func(t *testing.T) {
		table := introspection.NewTable("l", "parent_id", "notes", "text")
		col, err := listValueColumn(&table, "notes")
		require.NoError(t, err)
		assert.Equal(t, "notes", col)
	})

	t.Run("alphabetical fallback skips bookkeeping columns", func(t *testing.T) {
		table := introspection.NewTable("l", "parent_id", "id", "item_index", "created_at", "zeta", "body")
		col, err := listValueColumn(&table, "notes")
		require.NoError(t, err)
		assert.Equal(t, "body", col)
	})

	t.Run("nothing usable is an error", func(t *testing.T) {
		table := introspection.NewTable("l", "parent_id", "id", "created_at", "updated_at")
		_, err := listValueColumn(&table, "notes")
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "no usable value column")
	})
}
