package eventstore

import (
	"bytes"
	"errors"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrEmptyEventType      = errors.New("event type must not be empty")
	ErrInvalidPayloadJSON  = errors.New("payload must be a json object")
	ErrInvalidMetadataJSON = errors.New("metadata must be a json object")
)

var emptyMetadata = []byte("{}")

// StorableEvents is an alias type for a slice of StorableEvent.
type StorableEvents = []StorableEvent

// StorableEvent is what the engines persist and return: a type name, the time it happened,
// and payload and metadata as raw JSON objects.
//
// Filter predicates match top-level payload keys, so the payload must be an object, not an array or scalar.
type StorableEvent struct {
	EventType    string
	OccurredAt   time.Time
	PayloadJSON  []byte
	MetadataJSON []byte
}

func BuildStorableEvent(eventType string, occurredAt time.Time, payloadJSON []byte, metadataJSON []byte) (StorableEvent, error) {
	if strings.TrimSpace(eventType) == "" {
		return StorableEvent{}, ErrEmptyEventType
	}

	if !isJSONObject(payloadJSON) {
		return StorableEvent{}, ErrInvalidPayloadJSON
	}

	if !isJSONObject(metadataJSON) {
		return StorableEvent{}, ErrInvalidMetadataJSON
	}

	return StorableEvent{
		EventType:    eventType,
		OccurredAt:   occurredAt,
		PayloadJSON:  payloadJSON,
		MetadataJSON: metadataJSON,
	}, nil
}

// BuildStorableEventWithEmptyMetadata stores "{}" as metadata.
func BuildStorableEventWithEmptyMetadata(eventType string, occurredAt time.Time, payloadJSON []byte) (StorableEvent, error) {
	return BuildStorableEvent(eventType, occurredAt, payloadJSON, emptyMetadata)
}

func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)

	return len(trimmed) > 0 && trimmed[0] == '{' && jsoniter.Valid(trimmed)
}
