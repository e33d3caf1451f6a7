package grounding

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nl2sql-grounding/internal/schema"
)

func TestBuildSampleQuery(t *testing.T) {
	tests := []struct {
		name      string
		dialect   schema.Dialect
		keywords  []string
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "sqlite single keyword",
			dialect:   schema.SQLite,
			keywords:  []string{"paracetamol"},
			wantQuery: `SELECT DISTINCT "product_name" FROM "product" WHERE "product_name" IS NOT NULL AND (LOWER(CAST("product_name" AS TEXT)) LIKE ? ESCAPE '\') LIMIT 100`,
			wantArgs:  []any{"%paracetamol%"},
		},
		{
			name:     "postgres numbered placeholders",
			dialect:  schema.PostgreSQL,
			keywords: []string{"paracetamol", "syrup"},
			wantQuery: `SELECT DISTINCT "product_name" FROM "product" WHERE "product_name" IS NOT NULL AND ` +
				`(LOWER(CAST("product_name" AS TEXT)) LIKE $1 ESCAPE '\' OR LOWER(CAST("product_name" AS TEXT)) LIKE $2 ESCAPE '\') LIMIT 100`,
			wantArgs: []any{"%paracetamol%", "%syrup%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := BuildSampleQuery(tt.dialect, "product", "product_name", tt.keywords, 100)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildSampleQuery_QuotesHostileIdentifiers(t *testing.T) {
	query, _ := BuildSampleQuery(schema.SQLite, `t"; DROP TABLE x; --`, "name", []string{"abc"}, 5)
	assert.Contains(t, query, `FROM "t""; DROP TABLE x; --"`)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off`, EscapeLike("50%_off"))
	assert.Equal(t, `a\\b`, EscapeLike(`a\b`))
	assert.Equal(t, "plain", EscapeLike("plain"))
}

func TestSQLSampler_SampleValues(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	query, _ := BuildSampleQuery(schema.PostgreSQL, "product", "product_name", []string{"paracetamol"}, 100)
	mock.ExpectQuery(query).
		WithArgs("%paracetamol%").
		WillReturnRows(sqlmock.NewRows([]string{"product_name"}).
			AddRow("Paracetamol 500mg").
			AddRow([]byte("Paracetamol Syrup")).
			AddRow(nil).
			AddRow(int64(500)))

	values, err := NewSQLSampler(db, schema.PostgreSQL).
		SampleValues(context.Background(), "product", "product_name", []string{"paracetamol"}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paracetamol 500mg", "Paracetamol Syrup", "500"}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSampler_SampleValues_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	query, _ := BuildSampleQuery(schema.SQLite, "product", "product_code", []string{"para"}, 10)
	mock.ExpectQuery(query).WithArgs("%para%").WillReturnError(errors.New("permission denied"))

	_, err = NewSQLSampler(db, schema.SQLite).
		SampleValues(context.Background(), "product", "product_code", []string{"para"}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product.product_code")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSampler_SampleValues_NoKeywords(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	values, err := NewSQLSampler(db, schema.SQLite).SampleValues(context.Background(), "product", "product_name", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}
