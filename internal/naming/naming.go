// Package naming derives human-readable display labels from SQL names
// for the table-browse endpoints.
package naming

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// DisplayLabel converts an identifier to a title-cased label.
// Example: "customer_notes_list" -> "Customer Notes List".
func DisplayLabel(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		words[i] = titleWord(word)
	}
	return strings.Join(words, " ")
}

// SingularLabel converts a table name to a singular display label.
// Example: "order_items" -> "Order Item".
func SingularLabel(tableName string) string {
	words := strings.Split(tableName, "_")
	if len(words) > 0 {
		last := len(words) - 1
		words[last] = inflection.Singular(words[last])
	}
	for i, word := range words {
		words[i] = titleWord(word)
	}
	return strings.Join(words, " ")
}

// Pluralize converts a singular word to its plural form.
func Pluralize(word string) string {
	return inflection.Plural(word)
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
