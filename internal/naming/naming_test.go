package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Customer Notes List", DisplayLabel("customer_notes_list"))
	assert.Equal(t, "Orders", DisplayLabel("orders"))
	assert.Equal(t, "", DisplayLabel(""))
}

func TestSingularLabel(t *testing.T) {
	assert.Equal(t, "Order Item", SingularLabel("order_items"))
	assert.Equal(t, "Customer", SingularLabel("customers"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "categories", Pluralize("category"))
}
