// Package introspection discovers database schema metadata from Postgres'
// information_schema. It extracts base tables, columns, and foreign key
// edges for use by the summary query planner and the browse endpoints.
//
// A Schema is a point-in-time snapshot taken fresh per request; sibling
// endpoints may mutate the schema between requests, so nothing here is
// cached.
package introspection

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Column represents a database column.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
}

// ForeignKeyEdge is one directed foreign key edge in the schema graph.
// Multiple edges may exist between the same table pair.
type ForeignKeyEdge struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// Table represents a base table.
type Table struct {
	Name    string
	Columns []Column

	columnSet map[string]struct{}
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columnSet[name]
	return ok
}

// ColumnNames returns the column names in catalog order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Schema is a snapshot of the introspected database schema.
type Schema struct {
	Tables []Table
	Edges  []ForeignKeyEdge

	tableByName map[string]*Table
}

// Table returns the named table, or nil when it does not exist.
func (s *Schema) Table(name string) *Table {
	return s.tableByName[name]
}

// HasTable reports whether a base table with the given name exists.
func (s *Schema) HasTable(name string) bool {
	return s.tableByName[name] != nil
}

// Queryer provides query access for schema introspection.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// IntrospectSchema reads the live schema for the given Postgres schema
// name (usually "public"). The snapshot reflects the catalog at call
// time; storage errors propagate wrapped but otherwise unchanged.
func IntrospectSchema(ctx context.Context, db Queryer, schemaName string) (*Schema, error) {
	ctx, span := startSpan(ctx, "introspection.build_schema",
		attribute.String("db.schema", schemaName),
	)
	defer span.End()

	tables, err := getTables(ctx, db, schemaName)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}

	columnsByTable, err := getColumns(ctx, db, schemaName)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	edges, err := getForeignKeyEdges(ctx, db, schemaName)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}

	schema := &Schema{
		Edges:       edges,
		tableByName: make(map[string]*Table, len(tables)),
	}
	for _, name := range tables {
		table := Table{
			Name:    name,
			Columns: columnsByTable[name],
		}
		table.columnSet = make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			table.columnSet[col.Name] = struct{}{}
		}
		schema.Tables = append(schema.Tables, table)
	}
	for i := range schema.Tables {
		schema.tableByName[schema.Tables[i].Name] = &schema.Tables[i]
	}

	span.SetAttributes(
		attribute.Int("db.table_count", len(schema.Tables)),
		attribute.Int("db.fk_edge_count", len(schema.Edges)),
	)
	return schema, nil
}

func getTables(ctx context.Context, db Queryer, schemaName string) ([]string, error) {
	ctx, span := startSpan(ctx, "introspection.get_tables")
	defer span.End()

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := db.QueryContext(ctx, query, schemaName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return tables, nil
}

func getColumns(ctx context.Context, db Queryer, schemaName string) (map[string][]Column, error) {
	ctx, span := startSpan(ctx, "introspection.get_columns")
	defer span.End()

	query := `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, schemaName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns := make(map[string][]Column)
	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		columns[tableName] = append(columns[tableName], Column{
			Name:       columnName,
			DataType:   dataType,
			IsNullable: isNullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return columns, nil
}

func getForeignKeyEdges(ctx context.Context, db Queryer, schemaName string) ([]ForeignKeyEdge, error) {
	ctx, span := startSpan(ctx, "introspection.get_foreign_keys")
	defer span.End()

	query := `
		SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		ORDER BY tc.table_name, kcu.ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, schemaName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var edges []ForeignKeyEdge
	for rows.Next() {
		var edge ForeignKeyEdge
		if err := rows.Scan(&edge.FromTable, &edge.FromColumn, &edge.ToTable, &edge.ToColumn); err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return edges, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("tableadmin/introspection")
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
