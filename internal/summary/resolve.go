package summary

import (
	"fmt"
	"sort"
	"strings"

	"tableadmin/internal/introspection"
	"tableadmin/internal/sqlutil"
)

// resolvedField is one select-list entry with its final output alias.
type resolvedField struct {
	token       string
	expr        string // pre-quoted SQL expression, no alias
	outputAlias string
}

// tableJoin is one memoized LEFT JOIN against a related table.
type tableJoin struct {
	table     string
	alias     string
	condition string // pre-quoted ON predicate
}

// resolver determines, for each requested field, how its data is reached
// from the main table: same-table column, one-hop outgoing join, one-hop
// incoming correlated aggregate, or two-hop junction-mediated aggregate.
// State lives for a single planning pass.
type resolver struct {
	schema    *introspection.Schema
	main      *introspection.Table
	junctions map[string]struct{}

	edgesFrom map[string][]introspection.ForeignKeyEdge
	edgesTo   map[string][]introspection.ForeignKeyEdge

	// Joins are memoized by target table so a table is joined at most
	// once no matter how many fields reference it.
	joinByTable map[string]*tableJoin
	joinOrder   []string

	usedAliases map[string]struct{}
}

func newResolver(schema *introspection.Schema, junctions map[string]struct{}, main *introspection.Table) *resolver {
	r := &resolver{
		schema:      schema,
		main:        main,
		junctions:   junctions,
		edgesFrom:   make(map[string][]introspection.ForeignKeyEdge),
		edgesTo:     make(map[string][]introspection.ForeignKeyEdge),
		joinByTable: make(map[string]*tableJoin),
		usedAliases: map[string]struct{}{"id": {}},
	}
	for _, edge := range schema.Edges {
		r.edgesFrom[edge.FromTable] = append(r.edgesFrom[edge.FromTable], edge)
		r.edgesTo[edge.ToTable] = append(r.edgesTo[edge.ToTable], edge)
	}
	return r
}

// resolveField resolves a Field descriptor through the four cases in
// strict priority order. First match wins; there is no backtracking.
func (r *resolver) resolveField(desc FieldDescriptor) (resolvedField, error) {
	target := r.schema.Table(desc.Table)
	if target == nil {
		return resolvedField{}, configErrorf("unknown table %q", desc.Table)
	}
	if !target.HasColumn(desc.Column) {
		return resolvedField{}, configErrorf("unknown column %q on table %q", desc.Column, desc.Table)
	}

	// Case 1: column on the main table itself.
	if desc.Table == r.main.Name {
		return resolvedField{
			token:       desc.Token,
			expr:        sqlutil.QuoteQualified(r.main.Name, desc.Column),
			outputAlias: r.assignAlias(desc, desc.Column),
		}, nil
	}

	// Case 2: direct outgoing edge, main references target.
	edge, found, err := r.directedEdge(r.main.Name, desc.Table)
	if err != nil {
		return resolvedField{}, err
	}
	if found {
		join, err := r.ensureJoin(desc.Table, edge)
		if err != nil {
			return resolvedField{}, err
		}
		return resolvedField{
			token:       desc.Token,
			expr:        sqlutil.QuoteQualified(join.alias, desc.Column),
			outputAlias: r.assignAlias(desc, desc.Table+"_"+desc.Column),
		}, nil
	}

	// Case 3: direct incoming edge, target references main (one-to-many).
	edge, found, err = r.directedEdge(desc.Table, r.main.Name)
	if err != nil {
		return resolvedField{}, err
	}
	if found {
		cond, err := joinCondition(edge, desc.Table, desc.Table, r.main.Name, r.main.Name)
		if err != nil {
			return resolvedField{}, err
		}
		return resolvedField{
			token:       desc.Token,
			expr:        aggregateSubquery(target, desc.Column, desc.Table, cond),
			outputAlias: r.assignAlias(desc, desc.Table+"_"+desc.Column),
		}, nil
	}

	// Case 4: two-hop path through a junction table.
	resolved, found, err := r.resolveViaJunction(desc, target)
	if err != nil {
		return resolvedField{}, err
	}
	if found {
		return resolved, nil
	}

	return resolvedField{}, configErrorf("no relationship path from %q to %q.%q", r.main.Name, desc.Table, desc.Column)
}

// resolveViaJunction searches junction tables for a pair of edges
// connecting the main table to the target. Junctions are scanned in
// name order for determinism.
func (r *resolver) resolveViaJunction(desc FieldDescriptor, target *introspection.Table) (resolvedField, bool, error) {
	names := make([]string, 0, len(r.junctions))
	for name := range r.junctions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, junctionName := range names {
		if junctionName == r.main.Name || !r.schema.HasTable(junctionName) {
			continue
		}

		mainEdge, found, err := r.edgeBetween(r.main.Name, junctionName)
		if err != nil {
			return resolvedField{}, false, err
		}
		if !found {
			continue
		}

		mainCond, err := joinCondition(mainEdge, junctionName, junctionName, r.main.Name, r.main.Name)
		if err != nil {
			return resolvedField{}, false, err
		}

		// Requested column lives on the junction row itself
		// (association attribute).
		if desc.Table == junctionName {
			return resolvedField{
				token:       desc.Token,
				expr:        aggregateSubquery(target, desc.Column, junctionName, mainCond),
				outputAlias: r.assignAlias(desc, desc.Table+"_"+desc.Column),
			}, true, nil
		}

		targetEdge, found, err := r.edgeBetween(junctionName, desc.Table)
		if err != nil {
			return resolvedField{}, false, err
		}
		if !found {
			continue
		}

		targetCond, err := joinCondition(targetEdge, junctionName, junctionName, desc.Table, desc.Table)
		if err != nil {
			return resolvedField{}, false, err
		}

		expr := nestedAggregateSubquery(target, desc.Column, junctionName, desc.Table, targetCond, mainCond)
		return resolvedField{
			token:       desc.Token,
			expr:        expr,
			outputAlias: r.assignAlias(desc, desc.Table+"_"+desc.Column),
		}, true, nil
	}

	return resolvedField{}, false, nil
}

// resolveList resolves a List descriptor against the convention table
// <main>_<field>_list, which must exist and expose a parent_id column.
func (r *resolver) resolveList(desc FieldDescriptor) (resolvedField, error) {
	listTableName := fmt.Sprintf("%s_%s_list", r.main.Name, desc.ListField)
	listTable := r.schema.Table(listTableName)
	if listTable == nil {
		return resolvedField{}, configErrorf("list table %q not found for field %q", listTableName, desc.ListField)
	}
	if !listTable.HasColumn("parent_id") {
		return resolvedField{}, configErrorf("list table %q has no parent_id column", listTableName)
	}

	valueColumn, err := listValueColumn(listTable, desc.ListField)
	if err != nil {
		return resolvedField{}, err
	}

	cond := sqlutil.QuoteQualified(listTableName, "parent_id") + " = " + sqlutil.QuoteQualified(r.main.Name, "id")
	return resolvedField{
		token:       desc.Token,
		expr:        aggregateSubquery(listTable, valueColumn, listTableName, cond),
		outputAlias: r.assignAlias(desc, desc.ListField+"_list"),
	}, nil
}

// directedEdge returns the single FK edge from one table to another.
// More than one edge between the pair in that direction is surfaced as
// an ambiguity error rather than silently taking the first catalog match.
func (r *resolver) directedEdge(from, to string) (introspection.ForeignKeyEdge, bool, error) {
	var matches []introspection.ForeignKeyEdge
	for _, edge := range r.edgesFrom[from] {
		if edge.ToTable == to {
			matches = append(matches, edge)
		}
	}
	switch len(matches) {
	case 0:
		return introspection.ForeignKeyEdge{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return introspection.ForeignKeyEdge{}, false, configErrorf(
			"ambiguous relationship: %d foreign keys link %q to %q (e.g. %s and %s); cannot pick one automatically",
			len(matches), from, to,
			describeEdge(matches[0]), describeEdge(matches[1]))
	}
}

// edgeBetween returns the single FK edge connecting two tables in either
// direction, with the same ambiguity guarantee as directedEdge.
func (r *resolver) edgeBetween(a, b string) (introspection.ForeignKeyEdge, bool, error) {
	var matches []introspection.ForeignKeyEdge
	for _, edge := range r.edgesFrom[a] {
		if edge.ToTable == b {
			matches = append(matches, edge)
		}
	}
	for _, edge := range r.edgesFrom[b] {
		if edge.ToTable == a {
			matches = append(matches, edge)
		}
	}
	switch len(matches) {
	case 0:
		return introspection.ForeignKeyEdge{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return introspection.ForeignKeyEdge{}, false, configErrorf(
			"ambiguous relationship: %d foreign keys link %q and %q (e.g. %s and %s); cannot pick one automatically",
			len(matches), a, b,
			describeEdge(matches[0]), describeEdge(matches[1]))
	}
}

// ensureJoin returns the memoized join for a target table, creating it
// on first use.
func (r *resolver) ensureJoin(targetTable string, edge introspection.ForeignKeyEdge) (*tableJoin, error) {
	if join, ok := r.joinByTable[targetTable]; ok {
		return join, nil
	}

	alias := fmt.Sprintf("r%d", len(r.joinByTable)+1)
	cond, err := joinCondition(edge, r.main.Name, r.main.Name, targetTable, alias)
	if err != nil {
		return nil, err
	}

	join := &tableJoin{table: targetTable, alias: alias, condition: cond}
	r.joinByTable[targetTable] = join
	r.joinOrder = append(r.joinOrder, targetTable)
	return join, nil
}

// joins returns the memoized joins in creation order.
func (r *resolver) joins() []*tableJoin {
	result := make([]*tableJoin, 0, len(r.joinOrder))
	for _, table := range r.joinOrder {
		result = append(result, r.joinByTable[table])
	}
	return result
}

// assignAlias returns the output column alias for a descriptor: the
// explicit "as" alias when given, otherwise the default, uniquified
// against aliases already handed out (including the id anchor).
func (r *resolver) assignAlias(desc FieldDescriptor, fallback string) string {
	alias := desc.Alias
	if alias == "" {
		alias = fallback
	}

	candidate := alias
	for n := 2; ; n++ {
		if _, taken := r.usedAliases[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s_%d", alias, n)
	}
	r.usedAliases[candidate] = struct{}{}
	return candidate
}

// joinCondition writes the predicate for an edge between two tables as
// "<fromRef>.<fromColumn> = <toRef>.<toColumn>", resolving which side of
// the edge each table occupies. Refs are table names or aliases and are
// quoted here. An edge that does not actually connect the two tables is
// a logic error and is rejected.
func joinCondition(edge introspection.ForeignKeyEdge, aTable, aRef, bTable, bRef string) (string, error) {
	switch {
	case edge.FromTable == aTable && edge.ToTable == bTable:
		return sqlutil.QuoteQualified(aRef, edge.FromColumn) + " = " + sqlutil.QuoteQualified(bRef, edge.ToColumn), nil
	case edge.FromTable == bTable && edge.ToTable == aTable:
		return sqlutil.QuoteQualified(bRef, edge.FromColumn) + " = " + sqlutil.QuoteQualified(aRef, edge.ToColumn), nil
	default:
		return "", configErrorf("foreign key edge %s does not connect %q and %q", describeEdge(edge), aTable, bTable)
	}
}

// aggregateSubquery emits a scalar correlated subquery aggregating one
// column of a related table into a JSON array. Empty relations yield
// '[]', never NULL, so the output type is always an array.
func aggregateSubquery(table *introspection.Table, column, tableRef, condition string) string {
	var sb strings.Builder
	sb.WriteString("(SELECT COALESCE(json_agg(")
	sb.WriteString(sqlutil.QuoteQualified(tableRef, column))
	writeOrderBy(&sb, table, tableRef)
	sb.WriteString("), '[]'::json) FROM ")
	sb.WriteString(sqlutil.QuoteIdentifier(tableRef))
	sb.WriteString(" WHERE ")
	sb.WriteString(condition)
	sb.WriteString(")")
	return sb.String()
}

// nestedAggregateSubquery emits the two-hop form: junction joined to the
// target table inside the subquery, correlated to the main table through
// the junction.
func nestedAggregateSubquery(target *introspection.Table, column, junction, targetTable, joinCond, whereCond string) string {
	var sb strings.Builder
	sb.WriteString("(SELECT COALESCE(json_agg(")
	sb.WriteString(sqlutil.QuoteQualified(targetTable, column))
	writeOrderBy(&sb, target, targetTable)
	sb.WriteString("), '[]'::json) FROM ")
	sb.WriteString(sqlutil.QuoteIdentifier(junction))
	sb.WriteString(" JOIN ")
	sb.WriteString(sqlutil.QuoteIdentifier(targetTable))
	sb.WriteString(" ON ")
	sb.WriteString(joinCond)
	sb.WriteString(" WHERE ")
	sb.WriteString(whereCond)
	sb.WriteString(")")
	return sb.String()
}

func writeOrderBy(sb *strings.Builder, table *introspection.Table, tableRef string) {
	if orderCol, ok := orderColumn(table); ok {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(sqlutil.QuoteQualified(tableRef, orderCol))
	}
}

func describeEdge(edge introspection.ForeignKeyEdge) string {
	return fmt.Sprintf("%s.%s->%s.%s", edge.FromTable, edge.FromColumn, edge.ToTable, edge.ToColumn)
}
