package adapter

import (
	"context"

	"flidesk-checkout/internal/domain/model"
)

// Notifier is the hex port for the confirmation delivery collaborator.
// Callers invoke Send at most once per successful reconciliation; the intent's
// SessionID is the dedup key if the provider retries internally. Failure is
// non-fatal to reconciliation.
type Notifier interface {
	Name() string
	Send(ctx context.Context, intent model.NotificationIntent) error
}
