package schema

import (
	"fmt"
	"strings"
)

// TableDDL renders t as a CREATE TABLE statement. Single-column primary keys
// are inlined; composite keys and foreign keys become table constraints.
func TableDDL(t Table) string {
	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	for _, c := range t.Columns {
		def := "  " + c.Name
		if c.Type != "" {
			def += " " + c.Type
		}
		if !c.Nullable {
			def += " NOT NULL"
		}
		if len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == c.Name {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	if len(t.PrimaryKey) > 1 {
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		ref := fk.RefTable
		if len(fk.RefColumns) > 0 {
			ref += "(" + strings.Join(fk.RefColumns, ", ") + ")"
		}
		defs = append(defs, fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s", strings.Join(fk.Columns, ", "), ref))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", t.Name, strings.Join(defs, ",\n"))
}

// RenderDDL renders tables in order, separated by blank lines.
func RenderDDL(tables []Table) string {
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = TableDDL(t)
	}
	return strings.Join(parts, "\n\n")
}

// Describe renders the canonical text embedded for t: the table name and its
// typed columns in English, followed by the same inventory in Thai so that
// questions in either language land near the table.
func Describe(t Table) string {
	typed := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typed[i] = strings.TrimSpace(c.Name + " " + c.Type)
		if !c.Nullable {
			typed[i] += " NOT NULL"
		}
	}
	names := strings.Join(t.ColumnNames(), ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", t.Name)
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(typed, ", "))
	if refs := referencedTables(t); len(refs) > 0 {
		fmt.Fprintf(&b, "References: %s\n", strings.Join(refs, ", "))
	}
	fmt.Fprintf(&b, "ตาราง %s ที่มีคอลัมน์: %s", t.Name, names)
	return b.String()
}

func referencedTables(t Table) []string {
	seen := make(map[string]struct{}, len(t.ForeignKeys))
	var refs []string
	for _, fk := range t.ForeignKeys {
		if _, ok := seen[fk.RefTable]; ok {
			continue
		}
		seen[fk.RefTable] = struct{}{}
		refs = append(refs, fk.RefTable)
	}
	return refs
}
