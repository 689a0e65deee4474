package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
	"github.com/AntonStoeckl/book-lending-settlement/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName = "lending_events"

	logMsgBuildQueryFailed    = "failed to build sql query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgDBExecFailed        = "database execution failed during event append"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logMsgSQLExecuted         = "executed sql for: "

	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrEventType        = "event_type"
	logAttrEventCount       = "event_count"
	logAttrDurationMS       = "duration_ms"
	logAttrExpectedEvents   = "expected_events"
	logAttrRowsAffected     = "rows_affected"
	logAttrExpectedSequence = "expected_sequence"

	operationQuery  = "query"
	operationAppend = "append"

	errorTypeBuildQuery   = "build_query"
	errorTypeDatabase     = "database"
	errorTypeScan         = "row_scan"
	errorTypeRowsAffected = "rows_affected"
)

// EventStore appends and queries lending events in PostgreSQL.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
}

// NewEventStoreFromPGXPool creates an EventStore on top of a pgx pool.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromSQLDB creates an EventStore on top of a database/sql connection (lib/pq).
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates an EventStore on top of a sqlx connection.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Query returns all events matching the filter in sequence order, together with the
// max sequence number of this "dynamic event stream" at the time of the query.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	sqlQuery, err := es.buildSelectQuery(filter)
	if err != nil {
		es.logError(ctx, logMsgBuildQueryFailed, err)
		es.recordDatabaseError(ctx, operationQuery, errorTypeBuildQuery)

		return nil, 0, err
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	es.logDebug(ctx, logMsgSQLExecuted+operationQuery, logAttrDurationMS, toMilliseconds(time.Since(start)), logAttrQuery, sqlQuery)

	if queryErr != nil {
		es.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		es.recordDatabaseError(ctx, operationQuery, errorTypeDatabase)
		es.recordDuration(ctx, metricQueryDuration, time.Since(start), operationQuery, statusError)

		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer func() { _ = rows.Close() }()

	events, maxSequenceNumber, scanErr := es.scanEvents(ctx, rows)
	duration := time.Since(start)

	if scanErr != nil {
		es.recordDuration(ctx, metricQueryDuration, duration, operationQuery, statusError)
		return nil, 0, scanErr
	}

	es.logInfo(ctx, logMsgQueryCompleted, logAttrEventCount, len(events), logAttrDurationMS, toMilliseconds(duration))
	es.recordDuration(ctx, metricQueryDuration, duration, operationQuery, statusSuccess)
	es.recordValue(ctx, metricEventsQueried, float64(len(events)), operationQuery)

	return events, maxSequenceNumber, nil
}

func (es EventStore) scanEvents(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var (
		eventType  string
		occurredAt time.Time
		payload    []byte
		metadata   []byte
		seq        eventstore.MaxSequenceNumberUint
	)

	events := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		if err := rows.Scan(&eventType, &occurredAt, &payload, &metadata, &seq); err != nil {
			es.logError(ctx, logMsgScanRowFailed, err)
			es.recordDatabaseError(ctx, operationQuery, errorTypeScan)

			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		event, err := eventstore.BuildStorableEvent(eventType, occurredAt, payload, metadata)
		if err != nil {
			es.logError(ctx, logMsgScanRowFailed, err, logAttrEventType, eventType)
			return nil, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, err)
		}

		events = append(events, event)
		maxSequenceNumber = seq
	}

	if err := rows.Err(); err != nil {
		es.logError(ctx, logMsgScanRowFailed, err)
		es.recordDatabaseError(ctx, operationQuery, errorTypeScan)

		return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, err)
	}

	return events, maxSequenceNumber, nil
}

// Append stores the events atomically if and only if the max sequence number of the events matching
// the filter still equals expectedMaxSequenceNumber. Otherwise, nothing is stored and
// eventstore.ErrConcurrencyConflict is returned.
//
// The filter should be the one used for the Query that the caller's decision was based on.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	events ...eventstore.StorableEvent,
) error {

	if len(events) == 0 {
		return eventstore.ErrNoEventsToAppend
	}

	sqlQuery, err := es.buildInsertQuery(events, filter, expectedMaxSequenceNumber)
	if err != nil {
		es.logError(ctx, logMsgBuildQueryFailed, err, logAttrEventCount, len(events))
		es.recordDatabaseError(ctx, operationAppend, errorTypeBuildQuery)

		return err
	}

	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	es.logDebug(ctx, logMsgSQLExecuted+operationAppend, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)

	if execErr != nil {
		es.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		es.recordDatabaseError(ctx, operationAppend, errorTypeDatabase)
		es.recordDuration(ctx, metricAppendDuration, duration, operationAppend, statusError)

		return errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		es.logError(ctx, logMsgRowsAffectedFailed, rowsErr)
		es.recordDatabaseError(ctx, operationAppend, errorTypeRowsAffected)

		return errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsErr)
	}

	if rowsAffected < int64(len(events)) {
		es.logInfo(ctx, logMsgConcurrencyConflict,
			logAttrExpectedEvents, len(events),
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
		)
		es.incrementCounter(ctx, metricConcurrencyConflict, map[string]string{labelOperation: operationAppend})
		es.recordDuration(ctx, metricAppendDuration, duration, operationAppend, statusError)

		return eventstore.ErrConcurrencyConflict
	}

	es.logInfo(ctx, logMsgEventsAppended, logAttrEventCount, len(events), logAttrDurationMS, toMilliseconds(duration))
	es.recordDuration(ctx, metricAppendDuration, duration, operationAppend, statusSuccess)
	es.recordValue(ctx, metricEventsAppended, float64(len(events)), operationAppend)

	return nil
}
