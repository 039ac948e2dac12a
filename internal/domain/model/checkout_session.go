package model

import (
	"time"

	"flidesk-checkout/internal/domain"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // created by checkout submission; awaiting payment confirmation
	SessionStatusCompleted SessionStatus = "completed" // reconciled; subscription exists
	SessionStatusExpired   SessionStatus = "expired"   // expires_at passed before a confirmation arrived
	SessionStatusFailed    SessionStatus = "failed"    // gateway rejected the payment proof
)

// SessionTTL is how long a checkout session stays reconcilable. Fixed at
// creation; never extended.
const SessionTTL = 24 * time.Hour

// CheckoutSession records a user's purchase intent, created before payment.
// Status moves forward only: pending -> completed | expired | failed.
type CheckoutSession struct {
	ID           string // caller-generated token, primary lookup key
	Email        string
	BusinessName string
	Phone        string
	PlanID       string
	Amount       int64  // pricing snapshot in minor units, immutable once created
	Currency     string // ISO-ish code, e.g. "USD"
	Payload      map[string]interface{}
	Status       SessionStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
	CompletedAt  *time.Time // set when completed
	FlideskID    *string    // set when completed; never regenerated
}

// NewCheckoutSession validates and constructs a pending session with a fixed
// 24h expiry. A zero id gets a fresh UUID.
func NewCheckoutSession(id, email, businessName, phone string, plan *Plan, payload map[string]interface{}) (*CheckoutSession, error) {
	if email == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &CheckoutSession{
		ID:           id,
		Email:        email,
		BusinessName: businessName,
		Phone:        phone,
		PlanID:       plan.ID,
		Amount:       plan.Price,
		Currency:     plan.Currency,
		Payload:      payload,
		Status:       SessionStatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(SessionTTL),
	}, nil
}

// ExpiredAt reports whether the session's expiry has passed at t.
func (s *CheckoutSession) ExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// Reconcilable reports whether the session may still transition to completed.
func (s *CheckoutSession) Reconcilable(now time.Time) bool {
	return s.Status == SessionStatusPending && !s.ExpiredAt(now)
}
