// Package dbexec provides database query execution abstractions so the
// planner and handlers never touch a *sql.DB directly.
package dbexec

import (
	"context"
	"database/sql"
	"time"
)

// Rows abstracts sql.Rows to allow wrapped cleanup behavior.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// QueryExecutor abstracts SQL execution so callers can swap in test doubles.
type QueryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
}

// StandardExecutor executes queries directly against a database handle.
type StandardExecutor struct {
	db *sql.DB
}

// NewStandardExecutor creates an executor that runs queries directly against the database.
func NewStandardExecutor(db *sql.DB) *StandardExecutor {
	return &StandardExecutor{db: db}
}

func (e *StandardExecutor) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	if e.db == nil {
		return nil, sql.ErrConnDone
	}
	return e.db.QueryContext(ctx, query, args...)
}

// FetchAll runs a query and returns every row as a column-name keyed map.
// Byte slices are converted to strings so rows marshal cleanly to JSON.
func FetchAll(ctx context.Context, exec QueryExecutor, query string, args ...any) ([]map[string]any, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v
	default:
		return v
	}
}
