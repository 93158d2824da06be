// Package sqlutil provides SQL identifier validation and quoting helpers.
package sqlutil

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RequireIdentifier validates that value is a plain SQL identifier and
// returns it unchanged. The what argument names the value in error
// messages (e.g. "table", "column", "alias").
func RequireIdentifier(value string, what string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%s name must not be empty", what)
	}
	if !identifierPattern.MatchString(value) {
		return "", fmt.Errorf("invalid %s name %q", what, value)
	}
	return value, nil
}

// IsIdentifier reports whether value matches the strict identifier shape.
func IsIdentifier(value string) bool {
	return identifierPattern.MatchString(value)
}

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with double quotes and escapes any double quotes within the identifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// QuoteQualified quotes a table-qualified column reference.
func QuoteQualified(table, column string) string {
	return QuoteIdentifier(table) + "." + QuoteIdentifier(column)
}

// QuoteString quotes a SQL string literal with single quotes and escapes
// any single quotes within the string by doubling them.
func QuoteString(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	return "'" + escaped + "'"
}
