package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/book-lending-settlement/lending/alerting"
)

// AlerterSpy records escalated alerts.
type AlerterSpy struct {
	mu     sync.Mutex
	alerts []alerting.Alert
}

func NewAlerterSpy() *AlerterSpy {
	return &AlerterSpy{}
}

func (a *AlerterSpy) Escalate(_ context.Context, alert alerting.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.alerts = append(a.alerts, alert)

	return nil
}

func (a *AlerterSpy) Alerts() []alerting.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]alerting.Alert(nil), a.alerts...)
}
