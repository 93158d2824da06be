package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableadmin/internal/config"
	"tableadmin/internal/logging"
	"tableadmin/internal/observability"
)

func newTestServer(t *testing.T, monitorPings bool) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(monitorPings),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Database: config.DatabaseConfig{Database: "appdb", Schema: "public"},
		Server:   config.ServerConfig{Port: 8080, BrowseRowLimit: 50},
	}
	logger := logging.NewLogger(logging.Config{Level: "error"})
	return New(cfg, logger, db, observability.NewMetrics()), mock
}

// expectIntrospection queues the three catalog queries for a schema
// with customers(id, email) and orders(id, customer_id, total), where
// orders.customer_id references customers.id.
func expectIntrospection(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM information_schema\.tables`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("customers").
			AddRow("orders"))
	mock.ExpectQuery(`FROM information_schema\.columns`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable"}).
			AddRow("customers", "id", "integer", "NO").
			AddRow("customers", "email", "text", "YES").
			AddRow("orders", "id", "integer", "NO").
			AddRow("orders", "customer_id", "integer", "YES").
			AddRow("orders", "total", "numeric", "YES"))
	mock.ExpectQuery(`FROM information_schema\.table_constraints`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "ref_table", "ref_column"}).
			AddRow("orders", "customer_id", "customers", "id"))
}

func postSummary(t *testing.T, handler http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/summary", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSummary(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)
	mock.ExpectQuery(`SELECT "customers"\."id" AS "id", "customers"\."email" AS "email" FROM "customers" LIMIT 200`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(int64(1), "alice@example.com").
			AddRow(int64(2), "bob@example.com"))

	rec := postSummary(t, srv.Router(), map[string]any{
		"db":        "appdb",
		"mainTable": "customers",
		"summaryFields": []any{
			map[string]any{"kind": "field", "table": "customers", "column": "email"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	var result struct {
		Rows     []map[string]any  `json:"rows"`
		AliasMap map[string]string `json:"aliasMap"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "alice@example.com", result.Rows[0]["email"])
	assert.Equal(t, map[string]string{"field:customers.email": "email"}, result.AliasMap)
}

func TestHandleSummaryDatabaseMismatch(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := postSummary(t, srv.Router(), map[string]any{
		"db":        "otherdb",
		"mainTable": "customers",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `connected to \"appdb\"`)
}

func TestHandleSummaryConfigErrorIs400(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)

	rec := postSummary(t, srv.Router(), map[string]any{
		"db":        "appdb",
		"mainTable": "customers",
		"summaryFields": []any{
			map[string]any{"kind": "field", "table": "customers", "column": "nonexistent"},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nonexistent")
}

func TestHandleSummaryInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/summary", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestHandleListTables(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Tables []tableInfo `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Tables, 2)
	assert.Equal(t, tableInfo{Name: "customers", Label: "Customers", Role: "entity"}, result.Tables[0])
	assert.Equal(t, tableInfo{Name: "orders", Label: "Orders", Role: "entity"}, result.Tables[1])
}

func TestHandleTableColumns(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/orders", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Name    string       `json:"name"`
		Label   string       `json:"label"`
		Columns []columnInfo `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "orders", result.Name)
	assert.Equal(t, "Orders", result.Label)
	require.Len(t, result.Columns, 3)
	assert.Equal(t, columnInfo{Name: "customer_id", DataType: "integer", Kind: "integer", Nullable: true}, result.Columns[1])
}

func TestHandleTableColumnsUnknownTable(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/missing", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBrowseRows(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)
	mock.ExpectQuery(`SELECT \* FROM "customers" ORDER BY "customers"\."id" LIMIT 5`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(int64(1), "alice@example.com"))

	req := httptest.NewRequest(http.MethodGet, "/api/tables/customers/rows?limit=5", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	var result struct {
		Rows  []map[string]any `json:"rows"`
		Limit int              `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Rows, 1)
	assert.Equal(t, 5, result.Limit)
}

func TestHandleBrowseRowsRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/tables/customers/rows?limit=-1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBrowseRowsCapsLimit(t *testing.T) {
	srv, mock := newTestServer(t, false)
	expectIntrospection(mock)
	mock.ExpectQuery(`SELECT \* FROM "customers" ORDER BY "customers"\."id" LIMIT 50`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/api/tables/customers/rows?limit=9999", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIRequiresAdminToken(t *testing.T) {
	srv, mock := newTestServer(t, false)
	srv.cfg.Server.AdminToken = "s3cret"

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expectIntrospection(mock)
	req = httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, mock := newTestServer(t, true)
	mock.ExpectPing()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthzUnavailable(t *testing.T) {
	srv, mock := newTestServer(t, true)
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
