package shell

import (
	"github.com/AntonStoeckl/book-lending-settlement/eventstore"
)

// The lending components use the same dependency-free observability interfaces as the event store.
type (
	Logger                     = eventstore.Logger
	ContextualLogger           = eventstore.ContextualLogger
	MetricsCollector           = eventstore.MetricsCollector
	ContextualMetricsCollector = eventstore.ContextualMetricsCollector
)
