// Package sqltype classifies Postgres column types into coarse
// categories so API clients can pick widgets and formatters without
// parsing raw catalog type names.
package sqltype

import "strings"

// Category is the coarse kind of a SQL column type.
type Category int

const (
	// CategoryText is the default for character, enum, and unknown types.
	CategoryText Category = iota
	// CategoryInteger covers whole-number types.
	CategoryInteger
	// CategoryFloat covers floating-point and fixed-point numerics.
	CategoryFloat
	// CategoryBoolean covers boolean types.
	CategoryBoolean
	// CategoryJSON covers json and jsonb.
	CategoryJSON
	// CategoryTimestamp covers date and time types.
	CategoryTimestamp
	// CategoryUUID covers uuid columns.
	CategoryUUID
	// CategoryBinary covers bytea.
	CategoryBinary
)

// Classify maps an information_schema.columns data_type value to its
// category. Matching is case-insensitive and ignores size specifiers
// like (10,2), so full type names such as numeric(10,2) also work.
func Classify(dataType string) Category {
	if idx := strings.Index(dataType, "("); idx != -1 {
		dataType = dataType[:idx]
	}
	switch strings.ToLower(strings.TrimSpace(dataType)) {
	case "smallint", "integer", "bigint", "int", "int2", "int4", "int8",
		"smallserial", "serial", "bigserial":
		return CategoryInteger
	case "real", "double precision", "float4", "float8",
		"numeric", "decimal", "money":
		return CategoryFloat
	case "boolean", "bool":
		return CategoryBoolean
	case "json", "jsonb":
		return CategoryJSON
	case "date", "time without time zone", "time with time zone",
		"timestamp without time zone", "timestamp with time zone",
		"timestamp", "timestamptz", "interval":
		return CategoryTimestamp
	case "uuid":
		return CategoryUUID
	case "bytea":
		return CategoryBinary
	default:
		return CategoryText
	}
}

// String returns the category name used in API responses.
func (c Category) String() string {
	switch c {
	case CategoryInteger:
		return "integer"
	case CategoryFloat:
		return "float"
	case CategoryBoolean:
		return "boolean"
	case CategoryJSON:
		return "json"
	case CategoryTimestamp:
		return "timestamp"
	case CategoryUUID:
		return "uuid"
	case CategoryBinary:
		return "binary"
	default:
		return "text"
	}
}
