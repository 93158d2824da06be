// Package server wires the HTTP API: the summary planner endpoint,
// read-only table browsing, health, and metrics.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tableadmin/internal/config"
	"tableadmin/internal/dbexec"
	"tableadmin/internal/introspection"
	"tableadmin/internal/logging"
	"tableadmin/internal/middleware"
	"tableadmin/internal/observability"
	"tableadmin/internal/tableroles"
)

const healthCheckTimeout = 2 * time.Second

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	db      *sql.DB
	exec    dbexec.QueryExecutor
	roles   *tableroles.Store
	metrics *observability.Metrics
}

// New creates a Server over an open database handle.
func New(cfg *config.Config, logger *logging.Logger, db *sql.DB, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		exec:    dbexec.NewStandardExecutor(db),
		roles:   tableroles.NewStore(db),
		metrics: metrics,
	}
}

// Router builds the chi router with the full middleware stack. Health
// and metrics stay outside admin-token auth so probes and scrapers work
// unauthenticated.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(s.logger))
	r.Use(middleware.MetricsMiddleware(s.metrics))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		Enabled:        s.cfg.Server.CORSEnabled,
		AllowedOrigins: s.cfg.Server.CORSAllowedOrigins,
		AllowedMethods: s.cfg.Server.CORSAllowedMethods,
		AllowedHeaders: s.cfg.Server.CORSAllowedHeaders,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.AdminTokenAuthMiddleware(middleware.AdminTokenAuthConfig{
			Token:      s.cfg.Server.AdminToken,
			HeaderName: s.cfg.Server.AdminTokenHeader,
		}))
		api.Post("/summary", s.handleSummary)
		api.Get("/tables", s.handleListTables)
		api.Get("/tables/{table}", s.handleTableColumns)
		api.Get("/tables/{table}/rows", s.handleBrowseRows)
	})

	return r
}

// loadSchema takes a fresh schema snapshot and its role map. Every
// request plans against current catalog state, so schema changes are
// picked up without restarts.
func (s *Server) loadSchema(ctx context.Context) (*introspection.Schema, map[string]tableroles.Role, error) {
	schema, err := introspection.IntrospectSchema(ctx, s.db, s.cfg.Database.Schema)
	if err != nil {
		return nil, nil, err
	}
	roles, err := s.roles.GetTableRoles(ctx, schema)
	if err != nil {
		return nil, nil, err
	}
	return schema, roles, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
