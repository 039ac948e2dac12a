package model

import (
	"time"

	"flidesk-checkout/internal/domain"
)

// Subscription is derived from a CheckoutSession that reached completed.
// One per session; it keeps an audit link to the session but lives
// independently of it.
type Subscription struct {
	ID           string // UUID row id
	FlideskID    string // globally unique, assigned at reconciliation time
	SessionID    string // audit link back to the checkout session
	PlanID       string
	Email        string
	BusinessName string
	Amount       int64
	Currency     string
	CreatedAt    time.Time
}

// NewSubscription derives a subscription from a session and a freshly
// generated flidesk id.
func NewSubscription(rowID, flideskID string, sess *CheckoutSession) (*Subscription, error) {
	if rowID == "" || flideskID == "" || sess == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:           rowID,
		FlideskID:    flideskID,
		SessionID:    sess.ID,
		PlanID:       sess.PlanID,
		Email:        sess.Email,
		BusinessName: sess.BusinessName,
		Amount:       sess.Amount,
		Currency:     sess.Currency,
		CreatedAt:    time.Now(),
	}, nil
}
