package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// stdQuerier is satisfied by *sql.DB and *sqlx.DB.
type stdQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type stdAdapter struct {
	db stdQuerier
}

// NewSQLAdapter runs the event store statements on a database/sql handle, e.g. opened with lib/pq.
func NewSQLAdapter(db *sql.DB) DBAdapter {
	return stdAdapter{db: db}
}

// NewSQLXAdapter runs the event store statements on a sqlx handle.
func NewSQLXAdapter(db *sqlx.DB) DBAdapter {
	return stdAdapter{db: db}
}

func (a stdAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (a stdAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return a.db.ExecContext(ctx, query)
}
