package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// DeadlinePolicy decides what happens to sla_breach_at when priority changes.
type DeadlinePolicy int

const (
	// DeadlineLocked keeps the deadline computed at intake.
	DeadlineLocked DeadlinePolicy = iota
	// DeadlineRecompute recomputes from the original created_at.
	DeadlineRecompute
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	activity   repository.ActivityLogRepository
	dispatcher events.Dispatcher
	engine     *sla.Engine
	deadlines  DeadlinePolicy
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	ActivityRepo   repository.ActivityLogRepository
	Dispatcher     events.Dispatcher
	Engine         *sla.Engine
	DeadlinePolicy DeadlinePolicy
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequesterID string
	Title       string
	Description string
	Summary     string
	Transcript  *string
	Category    string
	Priority    string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	IDs         []string
	RequesterID *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Category    *string
	SearchTerm  *string
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	engine := deps.Engine
	if engine == nil {
		engine = sla.NewEngine(sla.DefaultPolicy())
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		engine:     engine,
		deadlines:  deps.DeadlinePolicy,
		logger:     logger,
	}
}

// CreateTicket opens a ticket and stamps its SLA deadline.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	priority := sla.NormalizePriority(input.Priority)
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultCategory
	}

	createdAt := s.engine.Now().UTC()
	breachAt, err := s.engine.ComputeBreachAt(string(priority), createdAt)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		TicketNumber: generateTicketNumber(),
		RequesterID:  strings.TrimSpace(input.RequesterID),
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Summary:      strings.TrimSpace(input.Summary),
		Transcript:   input.Transcript,
		Category:     category,
		Status:       domain.TicketStatusOpen,
		Priority:     priority,
		SLABreachAt:  &breachAt,
		CreatedAt:    createdAt,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("priority", string(ticket.Priority)),
		zap.Time("sla_breach_at", breachAt))

	if err := s.record(ctx, &domain.ActivityLog{
		TicketID: ticket.ID,
		ActorID:  optional(ticket.RequesterID),
		Action:   domain.ActionTicketCreated,
		NewValue: map[string]any{"priority": ticket.Priority, "sla_breach_at": breachAt},
	}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  optional(ticket.RequesterID),
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
			SLABreachAt:  ticket.SLABreachAt,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, ticketID)
	}
	return ticket, nil
}

// GetTicketByNumber fetches a ticket by its VM- number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, notFound(err, number)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, filter.repository())
}

func (f TicketListFilter) repository() repository.TicketFilter {
	return repository.TicketFilter{
		IDs:         f.IDs,
		RequesterID: f.RequesterID,
		AssigneeID:  f.AssigneeID,
		Statuses:    f.Statuses,
		Priorities:  f.Priorities,
		Category:    f.Category,
		SearchTerm:  f.SearchTerm,
		Limit:       f.Limit,
		Offset:      f.Offset,
	}
}

// UpdateStatus moves a ticket to another operational status.
func (s *TicketService) UpdateStatus(ctx context.Context, actorID, ticketID, rawStatus string) (*domain.Ticket, error) {
	newStatus, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{
			"status":  rawStatus,
			"allowed": domain.TicketStatuses,
		})
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if oldStatus == newStatus {
		return ticket, nil
	}
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.record(ctx, &domain.ActivityLog{
		TicketID: ticket.ID,
		ActorID:  optional(actorID),
		Action:   domain.ActionStatusChanged,
		OldValue: map[string]any{"status": oldStatus},
		NewValue: map[string]any{"status": newStatus},
	}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  optional(actorID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// UpdatePriority changes a ticket's priority. Whether the deadline moves
// depends on the configured DeadlinePolicy.
func (s *TicketService) UpdatePriority(ctx context.Context, actorID, ticketID, rawPriority string) (*domain.Ticket, error) {
	newPriority := sla.NormalizePriority(rawPriority)
	if !newPriority.IsKnown() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{
			"priority": rawPriority,
			"allowed":  sla.Priorities,
		})
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	if oldPriority == newPriority {
		return ticket, nil
	}
	oldBreach := ticket.SLABreachAt
	ticket.Priority = newPriority
	if s.deadlines == DeadlineRecompute && ticket.SLABreachAt != nil {
		breachAt, err := s.engine.ComputeBreachAt(string(newPriority), ticket.CreatedAt)
		if err != nil {
			return nil, err
		}
		ticket.SLABreachAt = &breachAt
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	oldValue := map[string]any{"priority": oldPriority}
	newValue := map[string]any{"priority": newPriority}
	if !sameInstant(ticket.SLABreachAt, oldBreach) {
		oldValue["sla_breach_at"] = oldBreach
		newValue["sla_breach_at"] = ticket.SLABreachAt
	}
	if err := s.record(ctx, &domain.ActivityLog{
		TicketID: ticket.ID,
		ActorID:  optional(actorID),
		Action:   domain.ActionPriorityChanged,
		OldValue: oldValue,
		NewValue: newValue,
	}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		ActorID:  optional(actorID),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority:    oldPriority,
			NewPriority:    newPriority,
			OldSLABreachAt: oldBreach,
			NewSLABreachAt: ticket.SLABreachAt,
		},
	})
	return ticket, nil
}

// ListActivity returns the audit trail for a ticket.
func (s *TicketService) ListActivity(ctx context.Context, ticketID string) ([]domain.ActivityLog, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if s.activity == nil {
		return []domain.ActivityLog{}, nil
	}
	return s.activity.ListByTicket(ctx, ticketID)
}

func (s *TicketService) record(ctx context.Context, entry *domain.ActivityLog) error {
	if s.activity == nil {
		return nil
	}
	return s.activity.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.engine.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

const ticketNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateTicketNumber draws six symbols from the random bytes of a v4 UUID.
// The alphabet has 32 symbols, so byte%32 is unbiased.
func generateTicketNumber() string {
	id := uuid.New()
	out := make([]byte, 0, 9)
	out = append(out, "VM-"...)
	for _, b := range id[:6] {
		out = append(out, ticketNumberAlphabet[int(b)%len(ticketNumberAlphabet)])
	}
	return string(out)
}

func notFound(err error, id string) error {
	if apperrors.ToDomainError(err).Code == "NOT_FOUND" {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return err
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
