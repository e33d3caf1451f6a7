package schema

// Table describes one table of a target database. Values are immutable once built.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Column is a table column with its declared type.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ForeignKey is a foreign-key edge from Columns to RefTable(RefColumns).
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// ColumnNames returns the table's column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
