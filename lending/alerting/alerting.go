// Package alerting escalates failures that need an operator, such as a compensation that could not be completed.
package alerting

import (
	"context"
	"time"
)

// Alert describes a state the system could not repair by itself.
type Alert struct {
	Operation     string    `json:"operation"`
	Reason        string    `json:"reason"`
	TransactionID string    `json:"transactionId,omitempty"`
	ItemID        string    `json:"itemId,omitempty"`
	BorrowerID    string    `json:"borrowerId,omitempty"`
	Details       string    `json:"details"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Alerter escalates an Alert. Implementations must not block for long.
type Alerter interface {
	Escalate(ctx context.Context, alert Alert) error
}
