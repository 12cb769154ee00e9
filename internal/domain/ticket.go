package domain

import (
	"strings"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every accepted status.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority = sla.Priority

const (
	TicketPriorityCritical = sla.PriorityCritical
	TicketPriorityHigh     = sla.PriorityHigh
	TicketPriorityMedium   = sla.PriorityMedium
	TicketPriorityLow      = sla.PriorityLow
)

// DefaultCategory is assigned when intake does not provide one.
const DefaultCategory = "general"

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	TicketNumber string
	RequesterID  string
	AssigneeID   *string
	Title        string
	Description  string
	Summary      string
	Transcript   *string
	Category     string
	Status       TicketStatus
	Priority     TicketPriority
	SLABreachAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParseTicketStatus normalizes a raw status and reports whether it is known.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	status := TicketStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range TicketStatuses {
		if status == known {
			return status, true
		}
	}
	return status, false
}

// IsFinal reports whether the ticket no longer counts against its SLA.
func (s TicketStatus) IsFinal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}
