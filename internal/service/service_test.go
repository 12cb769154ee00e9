package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	clock      *fakeClock
	engine     *sla.Engine
	tickets    *repository.MemoryTicketRepository
	activity   *repository.MemoryActivityLogRepository
	dispatcher *recordingDispatcher
	svc        *TicketService
	sla        *SLAService
}

func newHarness(t *testing.T, policy DeadlinePolicy) *harness {
	t.Helper()
	clock := &fakeClock{now: testNow}
	engine := sla.NewEngine(sla.DefaultPolicy(), sla.WithClock(clock.Now))
	h := &harness{
		clock:      clock,
		engine:     engine,
		tickets:    repository.NewMemoryTicketRepository(),
		activity:   repository.NewMemoryActivityLogRepository(),
		dispatcher: newRecordingDispatcher(),
	}
	h.svc = NewTicketService(TicketDependencies{
		TicketRepo:     h.tickets,
		ActivityRepo:   h.activity,
		Dispatcher:     h.dispatcher,
		Engine:         engine,
		DeadlinePolicy: policy,
	})
	h.sla = NewSLAService(engine, h.tickets, nil)
	require.NotNil(t, h.svc)
	return h
}
