package adapters

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgxAdapter struct {
	db pgxQuerier
}

// NewPGXAdapter runs the event store statements on a pgx pool.
func NewPGXAdapter(pool *pgxpool.Pool) DBAdapter {
	return pgxAdapter{db: pool}
}

func (a pgxAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgxRows{rows}, nil
}

func (a pgxAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	tag, err := a.db.Exec(ctx, query)
	if err != nil {
		return nil, err
	}

	return commandTag(tag), nil
}

type pgxRows struct {
	pgx.Rows
}

// Close reports errors that pgx only surfaces after the rows were closed.
func (r pgxRows) Close() error {
	r.Rows.Close()

	return r.Rows.Err()
}

type commandTag pgconn.CommandTag

func (t commandTag) RowsAffected() (int64, error) {
	return pgconn.CommandTag(t).RowsAffected(), nil
}
