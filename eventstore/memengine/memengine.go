// Package memengine is an in-process implementation of the lending event store.
//
// It offers the same conditional append contract as postgresengine and is used for tests,
// local runs of the lendingctl command and as a reference for the filter semantics.
package memengine

import (
	"context"
	"slices"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
)

type storedEvent struct {
	event          eventstore.StorableEvent
	sequenceNumber eventstore.MaxSequenceNumberUint
	payload        map[string]any
}

// EventStore keeps all events in memory, ordered by a global sequence number.
type EventStore struct {
	mu     sync.RWMutex
	events []storedEvent
	seq    eventstore.MaxSequenceNumberUint
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

// Query returns the matching events and the highest sequence number among them.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	events := make(eventstore.StorableEvents, 0)
	maxSeq := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if matches(filter, stored) {
			events = append(events, stored.event)
			maxSeq = stored.sequenceNumber
		}
	}

	return events, maxSeq, nil
}

// Append stores the events if the max sequence number of the filtered stream equals expectedMaxSequenceNumber.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	events ...eventstore.StorableEvent,
) error {

	if len(events) == 0 {
		return eventstore.ErrNoEventsToAppend
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	toStore := make([]storedEvent, 0, len(events))
	for _, event := range events {
		payload := make(map[string]any)
		if err := jsoniter.ConfigFastest.Unmarshal(event.PayloadJSON, &payload); err != nil {
			return eventstore.ErrInvalidPayloadJSON
		}

		toStore = append(toStore, storedEvent{event: event, payload: payload})
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	currentMax := eventstore.MaxSequenceNumberUint(0)
	for _, stored := range slices.Backward(es.events) {
		if matches(filter, stored) {
			currentMax = stored.sequenceNumber
			break
		}
	}

	if currentMax != expectedMaxSequenceNumber {
		return eventstore.ErrConcurrencyConflict
	}

	for _, stored := range toStore {
		es.seq++
		stored.sequenceNumber = es.seq
		es.events = append(es.events, stored)
	}

	return nil
}

// Len returns the number of stored events.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func matches(filter eventstore.Filter, stored storedEvent) bool {
	if filter.IsEmpty() {
		return true
	}

	for _, item := range filter.Items() {
		if matchesItem(item, stored) {
			return true
		}
	}

	return false
}

func matchesItem(item eventstore.FilterItem, stored storedEvent) bool {
	if len(item.EventTypes()) > 0 && !slices.Contains(item.EventTypes(), stored.event.EventType) {
		return false
	}

	if len(item.Predicates()) == 0 {
		return true
	}

	for _, predicate := range item.Predicates() {
		val, ok := stored.payload[predicate.Key()].(string)
		hit := ok && val == predicate.Val()

		if hit && !item.AllPredicatesMustMatch() {
			return true
		}

		if !hit && item.AllPredicatesMustMatch() {
			return false
		}
	}

	return item.AllPredicatesMustMatch()
}
