package schema

import (
	"fmt"
	"strings"
)

// Dialect is the SQL dialect of a target database.
type Dialect string

const (
	SQLite     Dialect = "SQLite"
	PostgreSQL Dialect = "PostgreSQL"
	MySQL      Dialect = "MySQL"
	SQLServer  Dialect = "SQL Server"
	Unknown    Dialect = "SQL"
)

// DetectDialect infers the dialect from the scheme of a connection string,
// e.g. "sqlite:///data/app.db" or "postgresql+psycopg2://user@host/db".
func DetectDialect(identity string) Dialect {
	scheme := strings.ToLower(identity)
	if i := strings.Index(scheme, ":"); i >= 0 {
		scheme = scheme[:i]
	}
	if i := strings.Index(scheme, "+"); i >= 0 {
		scheme = scheme[:i]
	}
	switch scheme {
	case "sqlite", "sqlite3", "file":
		return SQLite
	case "postgres", "postgresql", "pgx":
		return PostgreSQL
	case "mysql", "mariadb":
		return MySQL
	case "mssql", "sqlserver":
		return SQLServer
	default:
		return Unknown
	}
}

// QuoteIdent quotes an identifier for the dialect, doubling embedded quote characters.
func (d Dialect) QuoteIdent(name string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case SQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// Placeholder returns the bind placeholder for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case PostgreSQL:
		return fmt.Sprintf("$%d", n)
	case SQLServer:
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// TextCast renders an expression that converts col to text for substring matching.
func (d Dialect) TextCast(col string) string {
	switch d {
	case MySQL:
		return fmt.Sprintf("CAST(%s AS CHAR)", col)
	case SQLServer:
		return fmt.Sprintf("CAST(%s AS NVARCHAR(MAX))", col)
	default:
		return fmt.Sprintf("CAST(%s AS TEXT)", col)
	}
}
