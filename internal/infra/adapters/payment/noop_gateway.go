package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for tests and dev mode.
// MarkPaid simulates the provider capturing a session; the returned proof is
// accepted by VerifyProof once for the matching session.
type NoopPaymentGateway struct {
	mu   sync.Mutex
	seq  int64
	paid map[string]adapter.VerifiedPayment // sessionID -> capture
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{paid: make(map[string]adapter.VerifiedPayment)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

// MarkPaid simulates a capture and returns the proof string.
func (g *NoopPaymentGateway) MarkPaid(sessionID string, amount int64) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	refID := fmt.Sprintf("noop-ref-%d", g.seq)
	g.paid[sessionID] = adapter.VerifiedPayment{
		SessionID: sessionID,
		RefID:     refID,
		Amount:    amount,
		PaidAt:    time.Now(),
	}
	return "noop-proof-" + sessionID
}

func (g *NoopPaymentGateway) VerifyProof(ctx context.Context, sessionID, proof string) (adapter.VerifiedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	vp, ok := g.paid[sessionID]
	if !ok || proof != "noop-proof-"+sessionID {
		return adapter.VerifiedPayment{}, fmt.Errorf("noop: unknown proof: %w", domain.ErrProofRejected)
	}
	return vp, nil
}

func (g *NoopPaymentGateway) CheckStatus(ctx context.Context, sessionID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.paid[sessionID]; !ok {
		return "", domain.ErrNotFound
	}
	return "noop-proof-" + sessionID, nil
}

func (g *NoopPaymentGateway) PaymentURL(sessionID string) string {
	return "https://example.test/pay/" + sessionID
}
