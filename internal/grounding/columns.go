// Package grounding finds literal database values that match the entities
// mentioned in a question.
package grounding

import (
	"strings"
	"unicode"

	"nl2sql-grounding/internal/schema"
)

// Column name fragments that are never sampled: identifiers, timestamps,
// free text, contact details and secrets.
var deniedFragments = []string{
	"uuid", "guid",
	"date", "time", "created_at", "updated_at", "modified_at", "deleted_at",
	"description", "note", "comment", "detail", "remark",
	"email", "phone", "address", "url",
	"password", "passwd", "secret", "token", "hash", "salt",
}

// Column name fragments that suggest a small, categorical value set.
var categoricalFragments = []string{
	"status", "state", "type", "category", "class",
	"name", "title", "code", "label", "tag",
	"role", "level", "priority", "grade",
	"lot", "batch", "serial", "number",
}

// Declared types treated as bounded text.
var textTypes = []string{"VARCHAR", "CHAR", "TEXT", "STRING", "ENUM", "CITEXT"}

// EligibleColumns returns the columns of t worth sampling for grounded values,
// in declaration order.
func EligibleColumns(t schema.Table) []schema.Column {
	var cols []schema.Column
	for _, c := range t.Columns {
		if IsEligible(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsEligible reports whether a column may hold user-visible categorical values.
// Identifier and secret-like columns are never eligible.
func IsEligible(c schema.Column) bool {
	if isIdentifier(c.Name) {
		return false
	}
	name := strings.ToLower(c.Name)
	for _, frag := range deniedFragments {
		if strings.Contains(name, frag) {
			return false
		}
	}
	for _, frag := range categoricalFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	typ := strings.ToUpper(c.Type)
	for _, t := range textTypes {
		if strings.Contains(typ, t) {
			return true
		}
	}
	return false
}

// isIdentifier matches id, *_id, id_*, and camel-case *Id / *ID names.
func isIdentifier(name string) bool {
	lower := strings.ToLower(name)
	if lower == "id" || strings.HasSuffix(lower, "_id") || strings.HasPrefix(lower, "id_") {
		return true
	}
	if len(name) > 2 && (strings.HasSuffix(name, "Id") || strings.HasSuffix(name, "ID")) {
		return unicode.IsLower(rune(name[len(name)-3]))
	}
	return false
}
