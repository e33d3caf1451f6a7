package schema

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"nl2sql-grounding/internal/contextutil"
)

// Introspector builds table descriptors from a live database.
type Introspector struct {
	connector *Connector
}

// NewIntrospector creates an Introspector that opens databases through connector.
func NewIntrospector(connector *Connector) *Introspector {
	return &Introspector{connector: connector}
}

// BuildSchema connects to identity and returns its tables ordered by name.
// It only reads catalog metadata.
func (i *Introspector) BuildSchema(ctx context.Context, identity string) ([]Table, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	db, dialect, err := i.connector.Open(ctx, identity)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	tables, err := ReadTables(ctx, db, dialect)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "schema introspected",
		"identity", Redact(identity),
		"dialect", string(dialect),
		"tables", len(tables),
		"duration", time.Since(start).String(),
	)
	return tables, nil
}

// ReadTables reads table metadata from an open handle.
func ReadTables(ctx context.Context, db *sql.DB, dialect Dialect) ([]Table, error) {
	switch dialect {
	case SQLite:
		return readSQLite(ctx, db)
	case PostgreSQL:
		return readPostgres(ctx, db)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
}

func readSQLite(ctx context.Context, db *sql.DB) ([]Table, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		t := Table{Name: name}
		if err := sqliteColumns(ctx, db, &t); err != nil {
			return nil, err
		}
		if err := sqliteForeignKeys(ctx, db, &t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	resolveImplicitReferences(tables)
	return tables, nil
}

// resolveImplicitReferences fills the referenced columns of SQLite foreign
// keys declared without a column list, which point at the parent's primary
// key. Keys whose parent key cannot be resolved keep no referenced columns.
func resolveImplicitReferences(tables []Table) {
	primaryKeys := make(map[string][]string, len(tables))
	for _, t := range tables {
		primaryKeys[strings.ToLower(t.Name)] = t.PrimaryKey
	}
	for i := range tables {
		for j := range tables[i].ForeignKeys {
			fk := &tables[i].ForeignKeys[j]
			if !slices.Contains(fk.RefColumns, "") {
				continue
			}
			pk := primaryKeys[strings.ToLower(fk.RefTable)]
			if len(pk) == len(fk.Columns) && !slices.Contains(pk, "") {
				fk.RefColumns = slices.Clone(pk)
			} else {
				fk.RefColumns = nil
			}
		}
	}
}

func sqliteColumns(ctx context.Context, db *sql.DB, t *Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", SQLite.QuoteIdent(t.Name)))
	if err != nil {
		return fmt.Errorf("table_info %s: %w", t.Name, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	type pkCol struct {
		name string
		pos  int
	}
	var pks []pkCol
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan column of %s: %w", t.Name, err)
		}
		t.Columns = append(t.Columns, Column{Name: name, Type: typ, Nullable: notNull == 0})
		if pk > 0 {
			pks = append(pks, pkCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table_info %s: %w", t.Name, err)
	}

	// pk holds the 1-based position within the key
	t.PrimaryKey = make([]string, len(pks))
	for _, p := range pks {
		if p.pos-1 < len(pks) {
			t.PrimaryKey[p.pos-1] = p.name
		}
	}
	return nil
}

func sqliteForeignKeys(ctx context.Context, db *sql.DB, t *Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", SQLite.QuoteIdent(t.Name)))
	if err != nil {
		return fmt.Errorf("foreign_key_list %s: %w", t.Name, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	byID := make(map[int]int)
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("scan foreign key of %s: %w", t.Name, err)
		}
		idx, ok := byID[id]
		if !ok {
			idx = len(t.ForeignKeys)
			byID[id] = idx
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{RefTable: refTable})
		}
		fk := &t.ForeignKeys[idx]
		fk.Columns = append(fk.Columns, from)
		fk.RefColumns = append(fk.RefColumns, to.String)
	}
	return rows.Err()
}

const (
	pgTablesQuery = `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`

	pgColumnsQuery = `SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns
WHERE table_schema = current_schema()
ORDER BY table_name, ordinal_position`

	pgPrimaryKeysQuery = `SELECT tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema()
ORDER BY tc.table_name, kcu.ordinal_position`

	// conkey and confkey are parallel; k.pos is the column's place in the key.
	pgForeignKeysQuery = `SELECT con.conname, rel.relname, att.attname, frel.relname, fatt.attname
FROM pg_constraint con
JOIN pg_class rel ON rel.oid = con.conrelid
JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
JOIN pg_class frel ON frel.oid = con.confrelid
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, pos)
JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
JOIN pg_attribute fatt ON fatt.attrelid = con.confrelid AND fatt.attnum = k.fattnum
WHERE con.contype = 'f' AND nsp.nspname = current_schema()
ORDER BY rel.relname, con.conname, k.pos`
)

func readPostgres(ctx context.Context, db *sql.DB) ([]Table, error) {
	var tables []Table
	index := make(map[string]int)

	if err := eachRow(ctx, db, pgTablesQuery, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		index[name] = len(tables)
		tables = append(tables, Table{Name: name})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	if err := eachRow(ctx, db, pgColumnsQuery, func(rows *sql.Rows) error {
		var table, name, typ, nullable string
		if err := rows.Scan(&table, &name, &typ, &nullable); err != nil {
			return err
		}
		if i, ok := index[table]; ok {
			tables[i].Columns = append(tables[i].Columns, Column{Name: name, Type: typ, Nullable: nullable == "YES"})
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	if err := eachRow(ctx, db, pgPrimaryKeysQuery, func(rows *sql.Rows) error {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		if i, ok := index[table]; ok {
			tables[i].PrimaryKey = append(tables[i].PrimaryKey, column)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list primary keys: %w", err)
	}

	fkIndex := make(map[string]int)
	if err := eachRow(ctx, db, pgForeignKeysQuery, func(rows *sql.Rows) error {
		var constraint, table, column, refTable, refColumn string
		if err := rows.Scan(&constraint, &table, &column, &refTable, &refColumn); err != nil {
			return err
		}
		i, ok := index[table]
		if !ok {
			return nil
		}
		key := table + "." + constraint
		j, ok := fkIndex[key]
		if !ok {
			j = len(tables[i].ForeignKeys)
			fkIndex[key] = j
			tables[i].ForeignKeys = append(tables[i].ForeignKeys, ForeignKey{RefTable: refTable})
		}
		fk := &tables[i].ForeignKeys[j]
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	return tables, nil
}

func eachRow(ctx context.Context, db *sql.DB, query string, fn func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
