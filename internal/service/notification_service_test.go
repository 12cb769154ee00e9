package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sla-ticket-service/internal/config"
	"github.com/spec-kit/sla-ticket-service/internal/events"
)

func TestNotificationServiceLogsTicketEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	notifier := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "support@example.com",
		WebhookURL: "https://hooks.example.com/tickets",
	})
	notifier.RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		TicketRepo: newHarness(t, DeadlineLocked).tickets,
		Dispatcher: dispatcher,
	})
	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{Title: "x", Priority: "high"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "", ticket.ID, "closed")
	require.NoError(t, err)
	_, err = svc.UpdatePriority(context.Background(), "", ticket.ID, "low")
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("TicketCreated").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketStatusChanged").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketPriorityChanged").Len())
	assert.Equal(t, 2, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 3, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationServiceSkipsUnconfiguredChannels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: " "}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t1"}))
	assert.Equal(t, 1, logs.FilterMessage("TicketCreated").Len())
	assert.Zero(t, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Zero(t, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationServiceHandlesAssignment(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "support@example.com",
		WebhookURL: "https://hooks.example.com/tickets",
	}).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		TicketRepo: newHarness(t, DeadlineLocked).tickets,
		Dispatcher: dispatcher,
	})
	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.Assign(context.Background(), "lead", ticket.ID, "agent-2")
	require.NoError(t, err)

	assigned := logs.FilterMessage("TicketAssigned").All()
	require.Len(t, assigned, 1)
	assert.Equal(t, ticket.ID, assigned[0].ContextMap()["ticket_id"])
	assert.Equal(t, 2, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 2, logs.FilterMessage("sendWebhookNotificationStub").Len())
}
