// Package adapters lets the Postgres event store run on pgxpool.Pool, sql.DB (lib/pq) or sqlx.DB
// behind one small DBAdapter interface.
package adapters
