package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

func TestAssign(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DeadlineLocked)
	ticket, err := h.svc.CreateTicket(ctx, TicketCreateInput{Title: "x", Priority: "high"})
	require.NoError(t, err)
	deadline := *ticket.SLABreachAt

	assigned, err := h.svc.Assign(ctx, "lead-1", ticket.ID, " agent-7 ")
	require.NoError(t, err)
	require.NotNil(t, assigned.AssigneeID)
	assert.Equal(t, "agent-7", *assigned.AssigneeID)
	assert.True(t, assigned.SLABreachAt.Equal(deadline))

	reassigned, err := h.svc.Assign(ctx, "lead-1", ticket.ID, "agent-9")
	require.NoError(t, err)
	assert.Equal(t, "agent-9", *reassigned.AssigneeID)

	unassigned, err := h.svc.Assign(ctx, "lead-1", ticket.ID, "")
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssigneeID)

	activity, err := h.svc.ListActivity(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, activity, 4)
	first := activity[1]
	assert.Equal(t, domain.ActionAssignmentChanged, first.Action)
	assert.Nil(t, first.OldValue["assignee_id"])
	require.NotNil(t, first.NewValue["assignee_id"])
	assert.Equal(t, "agent-7", *first.NewValue["assignee_id"].(*string))
	assert.Equal(t, "agent-7", *activity[2].OldValue["assignee_id"].(*string))
	assert.Nil(t, activity[3].NewValue["assignee_id"])

	assert.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketAssigned,
		events.EventTicketAssigned,
	}, h.dispatcher.types())
	payload, ok := h.dispatcher.published[1].Payload.(events.TicketAssignedPayload)
	require.True(t, ok)
	assert.Nil(t, payload.OldAssigneeID)
	assert.Equal(t, "agent-7", *payload.NewAssigneeID)
}

func TestAssignSameAssigneeIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DeadlineLocked)
	ticket, err := h.svc.CreateTicket(ctx, TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	_, err = h.svc.Assign(ctx, "", ticket.ID, "agent-1")
	require.NoError(t, err)
	_, err = h.svc.Assign(ctx, "", ticket.ID, "agent-1")
	require.NoError(t, err)
	_, err = h.svc.Assign(ctx, "", ticket.ID, "")
	require.NoError(t, err)
	_, err = h.svc.Assign(ctx, "", ticket.ID, "  ")
	require.NoError(t, err)

	activity, err := h.svc.ListActivity(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, activity, 3)
}

func TestAssignUnknownTicket(t *testing.T) {
	h := newHarness(t, DeadlineLocked)
	_, err := h.svc.Assign(context.Background(), "", "missing", "agent-1")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestListTicketsByAssignee(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DeadlineLocked)
	mine, err := h.svc.CreateTicket(ctx, TicketCreateInput{Title: "mine"})
	require.NoError(t, err)
	_, err = h.svc.CreateTicket(ctx, TicketCreateInput{Title: "theirs"})
	require.NoError(t, err)
	_, err = h.svc.Assign(ctx, "", mine.ID, "agent-1")
	require.NoError(t, err)

	agent := "agent-1"
	got, err := h.svc.ListTickets(ctx, TicketListFilter{AssigneeID: &agent})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}
