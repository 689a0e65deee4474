package adapters

import "context"

// DBAdapter is what the event store needs from a database handle: plain statements, no arguments,
// since the statements are rendered with inlined values.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows is satisfied by *sql.Rows directly.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult is satisfied by sql.Result.
type DBResult interface {
	RowsAffected() (int64, error)
}
