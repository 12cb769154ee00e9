package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
)

// Assign hands a ticket to assigneeID. An empty assigneeID unassigns it.
// Assignment never touches the SLA deadline.
func (s *TicketService) Assign(ctx context.Context, actorID, ticketID, assigneeID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldAssignee := ticket.AssigneeID
	newAssignee := optional(strings.TrimSpace(assigneeID))
	if sameID(oldAssignee, newAssignee) {
		return ticket, nil
	}
	ticket.AssigneeID = newAssignee
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("ticket assignment changed",
		zap.String("ticket_id", ticket.ID),
		zap.Stringp("assignee_id", newAssignee))

	if err := s.record(ctx, &domain.ActivityLog{
		TicketID: ticket.ID,
		ActorID:  optional(actorID),
		Action:   domain.ActionAssignmentChanged,
		OldValue: map[string]any{"assignee_id": oldAssignee},
		NewValue: map[string]any{"assignee_id": newAssignee},
	}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  optional(actorID),
		Payload: events.TicketAssignedPayload{
			OldAssigneeID: oldAssignee,
			NewAssigneeID: newAssignee,
		},
	})
	return ticket, nil
}
