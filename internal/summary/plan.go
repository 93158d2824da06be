// Package summary implements the summary query planner: given a main
// table and declaratively requested fields, it discovers the
// relationship path for each field from live schema metadata and emits
// one row-preserving SQL statement, with related rows folded into JSON
// arrays via correlated subqueries.
package summary

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tableadmin/internal/dbexec"
	"tableadmin/internal/introspection"
	"tableadmin/internal/sqlutil"
)

// ResultRowLimit caps summary previews. Fixed and non-configurable.
const ResultRowLimit = 200

// Plan is the planned summary query: the final SQL plus the map from
// request tokens to the literal output column aliases used in it.
type Plan struct {
	SQL      string
	AliasMap map[string]string
}

// Result pairs executed rows with the alias map so clients can
// re-associate columns with their requested fields.
type Result struct {
	Rows     []map[string]any  `json:"rows"`
	AliasMap map[string]string `json:"aliasMap"`
}

// PlanSummary normalizes the raw summary and detail field lists and
// builds the plan. Planning is all-or-nothing: the SQL string only
// exists after every field resolved successfully.
func PlanSummary(ctx context.Context, schema *introspection.Schema, junctions map[string]struct{}, mainTable string, summaryFields, detailFields []any) (*Plan, error) {
	_, span := otel.Tracer("tableadmin/summary").Start(ctx, "summary.plan")
	defer span.End()
	span.SetAttributes(attribute.String("summary.main_table", mainTable))

	fields, err := NormalizeFields(summaryFields, detailFields)
	if err != nil {
		return nil, err
	}
	plan, err := BuildPlan(schema, junctions, mainTable, fields)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("summary.field_count", len(fields)))
	return plan, nil
}

// BuildPlan resolves every normalized field against the schema snapshot
// and assembles the SQL statement. The main table's id column is always
// selected first as the row anchor.
func BuildPlan(schema *introspection.Schema, junctions map[string]struct{}, mainTable string, fields []FieldDescriptor) (*Plan, error) {
	if _, err := sqlutil.RequireIdentifier(mainTable, "main table"); err != nil {
		return nil, configErrorf("%s", err)
	}
	main := schema.Table(mainTable)
	if main == nil {
		return nil, configErrorf("unknown main table %q", mainTable)
	}
	if !main.HasColumn("id") {
		return nil, configErrorf("main table %q has no id column", mainTable)
	}

	r := newResolver(schema, junctions, main)

	resolved := make([]resolvedField, 0, len(fields))
	for _, desc := range fields {
		var (
			rf  resolvedField
			err error
		)
		switch desc.Kind {
		case KindList:
			rf, err = r.resolveList(desc)
		default:
			rf, err = r.resolveField(desc)
		}
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rf)
	}

	selectItems := make([]string, 0, len(resolved)+1)
	selectItems = append(selectItems,
		sqlutil.QuoteQualified(main.Name, "id")+" AS "+sqlutil.QuoteIdentifier("id"))

	aliasMap := make(map[string]string, len(resolved))
	for _, rf := range resolved {
		selectItems = append(selectItems, rf.expr+" AS "+sqlutil.QuoteIdentifier(rf.outputAlias))
		aliasMap[rf.token] = rf.outputAlias
	}

	builder := sq.Select(selectItems...).From(sqlutil.QuoteIdentifier(main.Name))
	for _, join := range r.joins() {
		builder = builder.LeftJoin(fmt.Sprintf("%s AS %s ON %s",
			sqlutil.QuoteIdentifier(join.table),
			sqlutil.QuoteIdentifier(join.alias),
			join.condition))
	}
	builder = builder.Limit(ResultRowLimit)

	query, _, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to assemble summary SQL: %w", err)
	}

	return &Plan{SQL: query, AliasMap: aliasMap}, nil
}

// Execute runs the planned SQL once and returns the rows together with
// the alias map. Storage failures propagate as generic execution errors,
// never as configuration errors.
func (p *Plan) Execute(ctx context.Context, exec dbexec.QueryExecutor) (*Result, error) {
	rows, err := dbexec.FetchAll(ctx, exec, p.SQL)
	if err != nil {
		return nil, fmt.Errorf("summary query failed: %w", err)
	}
	return &Result{Rows: rows, AliasMap: p.AliasMap}, nil
}
