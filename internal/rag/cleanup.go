package rag

import (
	"regexp"
	"strings"
)

const (
	// NoSQLMessage is returned when the model produced nothing usable.
	NoSQLMessage = "-- ERROR: Could not generate SQL for this question. Please try rephrasing."
	// WriteRejectedMessage is returned when the model produced a write statement.
	WriteRejectedMessage = "-- ERROR: Write operations (INSERT/UPDATE/DELETE/DDL) are not allowed. Only SELECT queries are permitted."
)

var (
	specialTokenPattern = regexp.MustCompile(`</?s>|<\|.*?\|>`)
	sqlTagPattern       = regexp.MustCompile(`\[/?SQL\]`)
	firstWordPattern    = regexp.MustCompile(`^[A-Za-z]+`)
	writeWordPattern    = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|CREATE|MERGE)\b`)
)

var writeKeywords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {},
	"ALTER": {}, "TRUNCATE": {}, "CREATE": {}, "MERGE": {},
}

// CleanSQL strips model artifacts from a completion: special tokens, [SQL]
// tags and markdown fences. A non-empty result always ends with a semicolon.
func CleanSQL(raw string) string {
	s := specialTokenPattern.ReplaceAllString(raw, "")
	s = sqlTagPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")[1:]
		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
			lines = lines[:n-1]
		}
		s = strings.Join(lines, "\n")
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))

	if s != "" && !strings.HasSuffix(s, ";") {
		s += ";"
	}
	return s
}

// IsReadOnly reports whether sql does not start with a data or schema
// modification. For WITH queries the whole statement is checked, since a CTE
// can wrap a modifying statement.
func IsReadOnly(sql string) bool {
	s := strings.TrimLeft(strings.TrimSpace(sql), "(")
	first := strings.ToUpper(firstWordPattern.FindString(s))
	if _, write := writeKeywords[first]; write {
		return false
	}
	if first == "WITH" {
		return !writeWordPattern.MatchString(s)
	}
	return true
}

// FinalizeSQL turns a raw completion into the SQL returned to the caller or
// one of the error comments.
func FinalizeSQL(raw string) string {
	sql := CleanSQL(raw)
	switch {
	case sql == "" || sql == ";":
		return NoSQLMessage
	case !IsReadOnly(sql):
		return WriteRejectedMessage
	default:
		return sql
	}
}
