// Package postgresengine is the PostgreSQL implementation of the lending event store.
//
// Events live in a single append-only table (see deploy/postgres/schema.sql). Append runs a single
// INSERT ... SELECT guarded by a CTE that re-computes the max sequence number of the filtered
// "dynamic event stream", so a write only lands if nothing matching the filter was appended since
// the caller's Query. Connections can come from pgxpool, database/sql (lib/pq) or sqlx.
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(pool,
//		postgresengine.WithTableName("lending_events"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package postgresengine
