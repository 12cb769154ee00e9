package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/events"
)

var (
	// ErrQueueFull is returned by Publish when the buffer is saturated.
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned by Publish after Stop.
	ErrStopped = errors.New("notification worker stopped")
)

type job struct {
	ctx   context.Context
	event events.Event
}

// NotificationWorker moves event handling off the request path. It
// satisfies events.Dispatcher; subscriptions go straight to the wrapped
// dispatcher and publications are queued and delivered by one goroutine.
type NotificationWorker struct {
	next   events.Dispatcher
	logger *zap.Logger
	queue  chan job

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
	start   sync.Once
}

// NewNotificationWorker wraps next with a queue of the given size.
func NewNotificationWorker(next events.Dispatcher, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		next:   next,
		logger: logger,
		queue:  make(chan job, buffer),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a handler on the wrapped dispatcher.
func (w *NotificationWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.next.Subscribe(eventType, handler)
}

// Publish enqueues the event without waiting for handlers.
func (w *NotificationWorker) Publish(ctx context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- job{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery loop. Calling it more than once is a no-op.
func (w *NotificationWorker) Start() {
	w.start.Do(func() {
		w.wg.Add(1)
		go w.run()
	})
}

// Stop rejects new events, delivers what is already queued and waits for
// the loop to exit.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.done)
	w.mu.Unlock()

	w.Start()
	w.wg.Wait()
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.queue:
			w.deliver(j)
		case <-w.done:
			for {
				select {
				case j := <-w.queue:
					w.deliver(j)
				default:
					return
				}
			}
		}
	}
}

func (w *NotificationWorker) deliver(j job) {
	if err := w.next.Publish(j.ctx, j.event); err != nil {
		w.logger.Warn("notification handler failed",
			zap.String("event_type", string(j.event.Type)),
			zap.String("ticket_id", j.event.TicketID),
			zap.Error(err))
	}
}
