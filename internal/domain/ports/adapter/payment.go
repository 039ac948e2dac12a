package adapter

import (
	"context"
	"time"
)

// VerifiedPayment is the provider-agnostic result of proof verification.
type VerifiedPayment struct {
	SessionID string // session the proof was issued for
	RefID     string // provider transaction reference
	Amount    int64  // amount the provider captured, minor units
	PaidAt    time.Time
}

// PaymentGateway is the hex port for the hosted payment provider.
type PaymentGateway interface {
	Name() string

	// VerifyProof authenticates a callback proof for a session. It must
	// reject proofs that are unsigned, signed for another session, or unknown
	// to the provider.
	VerifyProof(ctx context.Context, sessionID, proof string) (VerifiedPayment, error)

	// CheckStatus asks the provider whether a session was paid out-of-band
	// (lost callback). Returns a proof usable with VerifyProof, or
	// domain.ErrNotFound when the provider has no capture for the session.
	CheckStatus(ctx context.Context, sessionID string) (proof string, err error)

	// PaymentURL is the hosted page the checkout submission redirects to.
	PaymentURL(sessionID string) string
}
