package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sla-ticket-service/internal/events"
)

func TestWorkerDeliversQueuedEvents(t *testing.T) {
	w := NewNotificationWorker(events.NewInMemoryDispatcher(), 8, nil)
	var delivered atomic.Int32
	w.Subscribe(events.EventTicketCreated, func(ctx context.Context, e events.Event) error {
		delivered.Add(1)
		return nil
	})
	w.Start()

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Publish(ctx, events.Event{Type: events.EventTicketCreated}))
	}
	// request contexts end before delivery
	cancel()

	assert.Eventually(t, func() bool { return delivered.Load() == 3 }, time.Second, 5*time.Millisecond)
	w.Stop()
	assert.ErrorIs(t, w.Publish(context.Background(), events.Event{Type: events.EventTicketCreated}), ErrStopped)
}

func TestWorkerStopDrainsQueue(t *testing.T) {
	w := NewNotificationWorker(events.NewInMemoryDispatcher(), 4, nil)
	var delivered atomic.Int32
	w.Subscribe(events.EventTicketStatusChanged, func(ctx context.Context, e events.Event) error {
		delivered.Add(1)
		return nil
	})

	for i := 0; i < 4; i++ {
		require.NoError(t, w.Publish(context.Background(), events.Event{Type: events.EventTicketStatusChanged}))
	}
	assert.ErrorIs(t, w.Publish(context.Background(), events.Event{Type: events.EventTicketStatusChanged}), ErrQueueFull)

	w.Stop()
	assert.EqualValues(t, 4, delivered.Load())
	assert.NotPanics(t, w.Stop)
}

func TestWorkerLogsHandlerFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	w := NewNotificationWorker(events.NewInMemoryDispatcher(), 1, zap.New(core))
	w.Subscribe(events.EventTicketPriorityChanged, func(ctx context.Context, e events.Event) error {
		return errors.New("webhook unreachable")
	})
	w.Start()
	require.NoError(t, w.Publish(context.Background(), events.Event{Type: events.EventTicketPriorityChanged, TicketID: "t-1"}))
	w.Stop()

	entries := logs.FilterMessage("notification handler failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "t-1", entries[0].ContextMap()["ticket_id"])
}
