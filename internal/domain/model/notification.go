package model

// NotificationIntent describes the confirmation message handed to the
// delivery collaborator after a successful reconciliation. SessionID doubles
// as the dedup key: the notifier may receive the same intent more than once
// and must deliver at most once.
type NotificationIntent struct {
	SessionID string
	Email     string
	FlideskID string
	PlanID    string
}
