package dto

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequesterID string  `json:"requester_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Summary     string  `json:"summary"`
	Transcript  *string `json:"transcript"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// TicketResponse is a ticket with its live SLA snapshot.
type TicketResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	RequesterID  string                `json:"requester_id,omitempty"`
	AssigneeID   *string               `json:"assignee_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Summary      string                `json:"summary,omitempty"`
	Transcript   *string               `json:"transcript,omitempty"`
	Category     string                `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	SLABreachAt  *time.Time            `json:"sla_breach_at"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	SLA          SLASnapshot           `json:"sla"`
}

// ActivityResponse is one audit entry.
type ActivityResponse struct {
	ID        string                `json:"id"`
	Action    domain.ActivityAction `json:"action"`
	ActorID   *string               `json:"actor_id"`
	OldValue  map[string]any        `json:"old_value,omitempty"`
	NewValue  map[string]any        `json:"new_value,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// UpdateAssigneeRequest payload.
type UpdateAssigneeRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// Assignee returns the requested assignee, empty when unassigning.
func (r UpdateAssigneeRequest) Assignee() string {
	if r.AssigneeID == nil {
		return ""
	}
	return *r.AssigneeID
}

// BulkStatusRequest payload.
type BulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// BulkAssigneeRequest payload.
type BulkAssigneeRequest struct {
	IDs        []string `json:"ids"`
	AssigneeID *string  `json:"assignee_id"`
}

// BulkResponse splits a bulk call into changed and rejected tickets.
type BulkResponse struct {
	Updated []TicketResponse `json:"updated"`
	Failed  []BulkFailure    `json:"failed"`
}

// BulkFailure is one ticket a bulk call could not change.
type BulkFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
