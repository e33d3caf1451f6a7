package grounding

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"nl2sql-grounding/internal/schema"
)

// Sampler fetches distinct candidate values of one column whose text contains
// at least one keyword. Implementations must be read-only and parameterized.
type Sampler interface {
	SampleValues(ctx context.Context, table, column string, keywords []string, limit int) ([]string, error)
}

// SQLSampler samples values through a database/sql handle.
type SQLSampler struct {
	db      *sql.DB
	dialect schema.Dialect
}

// NewSQLSampler creates a sampler for db using the quoting and placeholder
// rules of dialect.
func NewSQLSampler(db *sql.DB, dialect schema.Dialect) *SQLSampler {
	return &SQLSampler{db: db, dialect: dialect}
}

// SampleValues runs a single SELECT DISTINCT with one LIKE filter per keyword.
func (s *SQLSampler) SampleValues(ctx context.Context, table, column string, keywords []string, limit int) ([]string, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	query, args := BuildSampleQuery(s.dialect, table, column, keywords, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample %s.%s: %w", table, column, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var values []string
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s.%s: %w", table, column, err)
		}
		switch v := raw.(type) {
		case nil:
			continue
		case []byte:
			values = append(values, string(v))
		case string:
			values = append(values, v)
		default:
			values = append(values, fmt.Sprint(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sample %s.%s: %w", table, column, err)
	}
	return values, nil
}

// BuildSampleQuery renders the candidate query and its arguments. Keywords are
// bound as '%kw%' patterns with LIKE wildcards escaped.
func BuildSampleQuery(dialect schema.Dialect, table, column string, keywords []string, limit int) (string, []any) {
	col := dialect.QuoteIdent(column)
	expr := "LOWER(" + dialect.TextCast(col) + ")"

	conds := make([]string, len(keywords))
	args := make([]any, len(keywords))
	for i, kw := range keywords {
		conds[i] = fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, expr, dialect.Placeholder(i+1))
		args[i] = "%" + EscapeLike(strings.ToLower(kw)) + "%"
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND (%s) LIMIT %d",
		col, dialect.QuoteIdent(table), col, strings.Join(conds, " OR "), limit)
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
