package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tableadmin/internal/dbexec"
	"tableadmin/internal/logging"
	"tableadmin/internal/naming"
	"tableadmin/internal/observability"
	"tableadmin/internal/sqltype"
	"tableadmin/internal/sqlutil"
	"tableadmin/internal/summary"
	"tableadmin/internal/tableroles"
)

type summaryRequest struct {
	DB            string `json:"db"`
	MainTable     string `json:"mainTable"`
	SummaryFields []any  `json:"summaryFields"`
	DetailFields  []any  `json:"detailFields"`
}

type tableInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Role  string `json:"role"`
}

type columnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Kind     string `json:"kind"`
	Nullable bool   `json:"nullable"`
}

// handleSummary plans and executes one summary query. Planning errors
// are client mistakes (400); storage failures during introspection or
// execution are server errors (500).
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.DB != s.cfg.Database.Database {
		s.metrics.SummaryPlansTotal.WithLabelValues(observability.PlanOutcomeConfigError).Inc()
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("request is for database %q but the server is connected to %q", req.DB, s.cfg.Database.Database))
		return
	}

	schema, roles, err := s.loadSchema(r.Context())
	if err != nil {
		logger.Error("schema introspection failed", "error", err)
		s.metrics.SummaryPlansTotal.WithLabelValues(observability.PlanOutcomeExecutionError).Inc()
		writeError(w, http.StatusInternalServerError, "failed to read schema metadata")
		return
	}

	junctions := tableroles.JunctionTables(roles)

	plan, err := summary.PlanSummary(r.Context(), schema, junctions, req.MainTable, req.SummaryFields, req.DetailFields)
	if err != nil {
		if summary.IsConfigError(err) {
			s.metrics.SummaryPlansTotal.WithLabelValues(observability.PlanOutcomeConfigError).Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("summary planning failed", "main_table", req.MainTable, "error", err)
		s.metrics.SummaryPlansTotal.WithLabelValues(observability.PlanOutcomeExecutionError).Inc()
		writeError(w, http.StatusInternalServerError, "summary planning failed")
		return
	}

	result, err := plan.Execute(r.Context(), s.exec)
	if err != nil {
		logger.Error("summary execution failed", "main_table", req.MainTable, "error", err)
		s.metrics.SummaryPlansTotal.WithLabelValues(observability.PlanOutcomeExecutionError).Inc()
		writeError(w, http.StatusInternalServerError, "summary query failed")
		return
	}

	s.metrics.SummaryPlansTotal.WithLabelValues(observability.PlanOutcomeOK).Inc()
	s.metrics.SummaryRowsReturned.Observe(float64(len(result.Rows)))
	logger.Info("summary executed",
		"main_table", req.MainTable,
		"field_count", len(result.AliasMap),
		"row_count", len(result.Rows),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	schema, roles, err := s.loadSchema(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("schema introspection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read schema metadata")
		return
	}

	tables := make([]tableInfo, 0, len(schema.Tables))
	for _, table := range schema.Tables {
		tables = append(tables, tableInfo{
			Name:  table.Name,
			Label: naming.DisplayLabel(table.Name),
			Role:  string(roles[table.Name]),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleTableColumns(w http.ResponseWriter, r *http.Request) {
	tableName, err := sqlutil.RequireIdentifier(chi.URLParam(r, "table"), "table name")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	schema, roles, err := s.loadSchema(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("schema introspection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read schema metadata")
		return
	}

	table := schema.Table(tableName)
	if table == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("table %q does not exist", tableName))
		return
	}

	columns := make([]columnInfo, 0, len(table.Columns))
	for _, col := range table.Columns {
		columns = append(columns, columnInfo{
			Name:     col.Name,
			DataType: col.DataType,
			Kind:     sqltype.Classify(col.DataType).String(),
			Nullable: col.IsNullable,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    table.Name,
		"label":   naming.DisplayLabel(table.Name),
		"role":    string(roles[table.Name]),
		"columns": columns,
	})
}

// handleBrowseRows serves a bounded read-only preview of one table.
func (s *Server) handleBrowseRows(w http.ResponseWriter, r *http.Request) {
	tableName, err := sqlutil.RequireIdentifier(chi.URLParam(r, "table"), "table name")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := s.cfg.Server.BrowseRowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be a positive integer, got %q", raw))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	schema, _, err := s.loadSchema(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("schema introspection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read schema metadata")
		return
	}

	table := schema.Table(tableName)
	if table == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("table %q does not exist", tableName))
		return
	}

	query := fmt.Sprintf("SELECT * FROM %s", sqlutil.QuoteIdentifier(table.Name))
	if table.HasColumn("id") {
		query += fmt.Sprintf(" ORDER BY %s", sqlutil.QuoteQualified(table.Name, "id"))
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := dbexec.FetchAll(r.Context(), s.exec, query)
	if err != nil {
		logging.FromContext(r.Context()).Error("row browse failed", "table", tableName, "error", err)
		writeError(w, http.StatusInternalServerError, "row query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"limit": limit,
	})
}
