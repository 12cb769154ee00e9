package domain

import "time"

// ActivityAction captures what happened in an activity entry.
type ActivityAction string

const (
	ActionTicketCreated     ActivityAction = "ticket_created"
	ActionStatusChanged     ActivityAction = "status_changed"
	ActionPriorityChanged   ActivityAction = "priority_changed"
	ActionAssignmentChanged ActivityAction = "assignment_changed"
)

// ActivityLog is an immutable audit trail entry.
type ActivityLog struct {
	ID        string
	TicketID  string
	ActorID   *string
	Action    ActivityAction
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}
