package shell

import (
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
)

var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// EventMetadata correlates the events written by one lending operation.
type EventMetadata struct {
	MessageID     string
	CausationID   string
	CorrelationID string
	Operation     string
}

// BuildEventMetadata creates metadata for an event caused by the request with correlationID.
func BuildEventMetadata(messageID, correlationID uuid.UUID, operation string) EventMetadata {
	return EventMetadata{
		MessageID:     messageID.String(),
		CausationID:   correlationID.String(),
		CorrelationID: correlationID.String(),
		Operation:     operation,
	}
}

// EventMetadataFrom extracts EventMetadata from a StorableEvent.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	metadata := EventMetadata{}
	if err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, &metadata); err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return metadata, nil
}
