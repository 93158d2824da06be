package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		dataType string
		want     Category
	}{
		{"integer", CategoryInteger},
		{"bigint", CategoryInteger},
		{"BIGSERIAL", CategoryInteger},
		{"numeric", CategoryFloat},
		{"numeric(10,2)", CategoryFloat},
		{"double precision", CategoryFloat},
		{"boolean", CategoryBoolean},
		{"json", CategoryJSON},
		{"jsonb", CategoryJSON},
		{"timestamp with time zone", CategoryTimestamp},
		{"date", CategoryTimestamp},
		{"uuid", CategoryUUID},
		{"bytea", CategoryBinary},
		{"text", CategoryText},
		{"character varying", CategoryText},
		{"character varying(255)", CategoryText},
		{"USER-DEFINED", CategoryText},
		{"", CategoryText},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.dataType))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "integer", CategoryInteger.String())
	assert.Equal(t, "float", CategoryFloat.String())
	assert.Equal(t, "boolean", CategoryBoolean.String())
	assert.Equal(t, "json", CategoryJSON.String())
	assert.Equal(t, "timestamp", CategoryTimestamp.String())
	assert.Equal(t, "uuid", CategoryUUID.String())
	assert.Equal(t, "binary", CategoryBinary.String())
	assert.Equal(t, "text", CategoryText.String())
}
