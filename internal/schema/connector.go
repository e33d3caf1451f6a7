package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrConnection is returned when a target database cannot be opened or pinged.
	ErrConnection = errors.New("database connection failed")
	// ErrUnsupportedDialect is returned for dialects without a registered driver.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
)

const pingTimeout = 5 * time.Second

// Connector opens pooled handles to target databases from connection strings.
type Connector struct {
	MaxOpenConns int
}

// NewConnector creates a Connector with the given pool size.
func NewConnector(maxOpenConns int) *Connector {
	return &Connector{MaxOpenConns: maxOpenConns}
}

// Open opens and pings the database named by identity. The caller owns the returned handle.
func (c *Connector) Open(ctx context.Context, identity string) (*sql.DB, Dialect, error) {
	dialect := DetectDialect(identity)

	driver, dsn, err := driverDSN(dialect, identity)
	if err != nil {
		return nil, dialect, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, dialect, fmt.Errorf("%w: open %s: %v", ErrConnection, Redact(identity), err)
	}
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
		db.SetMaxIdleConns(c.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, dialect, fmt.Errorf("%w: ping %s: %v", ErrConnection, Redact(identity), err)
	}

	return db, dialect, nil
}

// driverDSN maps a connection string to a database/sql driver name and DSN.
func driverDSN(dialect Dialect, identity string) (string, string, error) {
	switch dialect {
	case SQLite:
		return "sqlite3", sqliteDSN(identity), nil
	case PostgreSQL:
		rest := identity[strings.Index(identity, ":"):]
		return "pgx", "postgres" + rest, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
}

// sqliteDSN turns "sqlite:///rel.db", "sqlite:////abs.db" or "sqlite://:memory:" into a go-sqlite3 DSN.
// Target databases are opened read-only.
func sqliteDSN(identity string) string {
	if strings.HasPrefix(identity, "file:") {
		return identity
	}
	path := identity[strings.Index(identity, ":")+1:]
	path = strings.TrimPrefix(path, "//")
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		path = path[1:]
	} else if strings.HasPrefix(path, "//") {
		path = path[1:]
	}
	if path == "" || path == ":memory:" {
		return "file::memory:"
	}
	return "file:" + path + "?mode=ro"
}

// Redact masks the password of a URL-style connection string for logging.
func Redact(identity string) string {
	u, err := url.Parse(identity)
	if err != nil || u.User == nil {
		return identity
	}
	return u.Redacted()
}
