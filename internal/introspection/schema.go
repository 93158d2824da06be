package introspection

// NewSchema builds a Schema from in-memory tables and edges. It exists
// for callers that assemble schema snapshots without a database, chiefly
// tests and fixtures; IntrospectSchema is the production path.
func NewSchema(tables []Table, edges []ForeignKeyEdge) *Schema {
	schema := &Schema{
		Tables:      tables,
		Edges:       edges,
		tableByName: make(map[string]*Table, len(tables)),
	}
	for i := range schema.Tables {
		table := &schema.Tables[i]
		if table.columnSet == nil {
			table.columnSet = make(map[string]struct{}, len(table.Columns))
			for _, col := range table.Columns {
				table.columnSet[col.Name] = struct{}{}
			}
		}
		schema.tableByName[table.Name] = table
	}
	return schema
}

// NewTable builds a Table with columns named by the given list. Column
// metadata beyond the name is zero-valued; tests rarely need more.
func NewTable(name string, columnNames ...string) Table {
	table := Table{
		Name:      name,
		Columns:   make([]Column, 0, len(columnNames)),
		columnSet: make(map[string]struct{}, len(columnNames)),
	}
	for _, col := range columnNames {
		table.Columns = append(table.Columns, Column{Name: col})
		table.columnSet[col] = struct{}{}
	}
	return table
}
