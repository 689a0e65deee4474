package testdoubles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AntonStoeckl/book-lending-settlement/lending/payment"
)

// PaymentGatewayFake is an in-memory payment.Gateway that counts calls and can be told to fail.
// CreditDelay makes every credit take at least that long, like a slow acquirer.
type PaymentGatewayFake struct {
	mu          sync.Mutex
	debits      []payment.SettlementRequest
	credits     []payment.SettlementRequest
	DebitErr    error
	CreditErr   error
	CreditDelay time.Duration
}

func NewPaymentGatewayFake() *PaymentGatewayFake {
	return &PaymentGatewayFake{}
}

func (g *PaymentGatewayFake) Debit(_ context.Context, req payment.SettlementRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debits = append(g.debits, req)
	if g.DebitErr != nil {
		return "", g.DebitErr
	}

	return fmt.Sprintf("debit-%d", len(g.debits)), nil
}

func (g *PaymentGatewayFake) Credit(ctx context.Context, req payment.SettlementRequest) (string, error) {
	if g.CreditDelay > 0 {
		select {
		case <-time.After(g.CreditDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.credits = append(g.credits, req)
	if g.CreditErr != nil {
		return "", g.CreditErr
	}

	return fmt.Sprintf("credit-%d", len(g.credits)), nil
}

func (g *PaymentGatewayFake) Debits() []payment.SettlementRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]payment.SettlementRequest(nil), g.debits...)
}

func (g *PaymentGatewayFake) Credits() []payment.SettlementRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]payment.SettlementRequest(nil), g.credits...)
}
