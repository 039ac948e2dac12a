package model

import (
	"time"

	"flidesk-checkout/internal/domain"
)

// Plan represents a purchasable subscription plan. Sessions snapshot the price
// at checkout time, so later plan edits never change an in-flight session.
type Plan struct {
	ID        string
	Name      string
	Price     int64 // minor units
	Currency  string
	CreatedAt time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, price int64, currency string) (*Plan, error) {
	if id == "" || name == "" || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if currency == "" {
		currency = "USD"
	}
	return &Plan{
		ID:        id,
		Name:      name,
		Price:     price,
		Currency:  currency,
		CreatedAt: time.Now(),
	}, nil
}
