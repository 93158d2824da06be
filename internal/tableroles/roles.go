// Package tableroles reads the per-table role map (entity / lookup /
// junction) that guides many-to-many resolution in the summary planner.
//
// Roles are maintained externally in a table_roles metadata table. When
// that table is absent from the schema snapshot, junctions are inferred
// from foreign key shape so the planner still works on untagged schemas.
package tableroles

import (
	"context"
	"fmt"

	"tableadmin/internal/introspection"
)

// Role tags how a table participates in the schema.
type Role string

const (
	// RoleEntity marks a regular entity table.
	RoleEntity Role = "entity"
	// RoleLookup marks a small reference table.
	RoleLookup Role = "lookup"
	// RoleJunction marks a table implementing a many-to-many association.
	RoleJunction Role = "junction"
)

// MetadataTable is the conventional name of the role metadata table.
const MetadataTable = "table_roles"

// Store reads table roles from the database.
type Store struct {
	db introspection.Queryer
}

// NewStore creates a role store over the given query handle.
func NewStore(db introspection.Queryer) *Store {
	return &Store{db: db}
}

// GetTableRoles returns the role map for the given schema snapshot.
// Explicit rows from the metadata table win; tables not listed there
// fall back to the heuristic classification.
func (s *Store) GetTableRoles(ctx context.Context, schema *introspection.Schema) (map[string]Role, error) {
	roles := ClassifyByShape(schema)

	if !schema.HasTable(MetadataTable) {
		return roles, nil
	}

	query := `SELECT table_name, role FROM table_roles ORDER BY table_name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table roles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var tableName, roleName string
		if err := rows.Scan(&tableName, &roleName); err != nil {
			return nil, fmt.Errorf("failed to scan table role: %w", err)
		}
		role := Role(roleName)
		switch role {
		case RoleEntity, RoleLookup, RoleJunction:
			roles[tableName] = role
		default:
			return nil, fmt.Errorf("unknown role %q for table %q", roleName, tableName)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table roles: %w", err)
	}
	return roles, nil
}

// ClassifyByShape infers roles from foreign key shape alone. A table is
// a junction when it carries exactly two outgoing FK edges referencing
// two distinct tables that both exist in the snapshot. Everything else
// is an entity.
func ClassifyByShape(schema *introspection.Schema) map[string]Role {
	outgoing := make(map[string][]introspection.ForeignKeyEdge)
	for _, edge := range schema.Edges {
		outgoing[edge.FromTable] = append(outgoing[edge.FromTable], edge)
	}

	roles := make(map[string]Role, len(schema.Tables))
	for _, table := range schema.Tables {
		roles[table.Name] = RoleEntity

		edges := outgoing[table.Name]
		if len(edges) != 2 {
			continue
		}
		if edges[0].ToTable == edges[1].ToTable {
			continue
		}
		if !schema.HasTable(edges[0].ToTable) || !schema.HasTable(edges[1].ToTable) {
			continue
		}
		roles[table.Name] = RoleJunction
	}
	return roles
}

// JunctionTables returns the junction subset of a role map.
func JunctionTables(roles map[string]Role) map[string]struct{} {
	junctions := make(map[string]struct{})
	for name, role := range roles {
		if role == RoleJunction {
			junctions[name] = struct{}{}
		}
	}
	return junctions
}
