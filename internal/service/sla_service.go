package service

import (
	"context"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// StatusObserver is notified of every status the service derives.
type StatusObserver interface {
	ObserveSLAStatus(status sla.Status)
}

// SLAService exposes deadline computations over tickets and raw inputs.
type SLAService struct {
	engine   *sla.Engine
	tickets  repository.TicketRepository
	observer StatusObserver
}

// NewSLAService builds the service. tickets may be nil when only stateless
// evaluation is needed.
func NewSLAService(engine *sla.Engine, tickets repository.TicketRepository, observer StatusObserver) *SLAService {
	if engine == nil {
		engine = sla.NewEngine(sla.DefaultPolicy())
	}
	return &SLAService{engine: engine, tickets: tickets, observer: observer}
}

// EvaluateInput carries a stateless evaluation request. Either BreachAt or
// CreatedAt must be supplied; CreatedAt is combined with Priority.
type EvaluateInput struct {
	Priority     string
	CreatedAt    string
	BreachAt     string
	TicketStatus string
	Now          string
}

// EvaluateResult is the outcome of a stateless evaluation.
type EvaluateResult struct {
	Priority        sla.Priority
	DurationMinutes int
	Snapshot        sla.Snapshot
}

// PolicyView describes the active policy for display.
type PolicyView struct {
	Minutes       map[sla.Priority]int
	Fallback      sla.Priority
	WarningWindow time.Duration
}

// Policy returns the active policy table.
func (s *SLAService) Policy() PolicyView {
	return PolicyView{
		Minutes:       s.engine.Policy().Table(),
		Fallback:      sla.FallbackPriority,
		WarningWindow: sla.WarningWindow,
	}
}

// Now reads the engine clock.
func (s *SLAService) Now() time.Time {
	return s.engine.Now()
}

// Evaluate classifies a deadline without touching storage.
func (s *SLAService) Evaluate(input EvaluateInput) (*EvaluateResult, error) {
	now := s.engine.Now()
	if input.Now != "" {
		parsed, err := sla.ParseTimestamp(input.Now)
		if err != nil {
			return nil, apperrors.NewInvalidTimestamp("now", err)
		}
		now = parsed
	}

	result := &EvaluateResult{
		Priority:        sla.NormalizePriority(input.Priority),
		DurationMinutes: s.engine.DurationForPriority(input.Priority),
	}

	var breachAt *time.Time
	switch {
	case input.BreachAt != "":
		parsed, err := sla.ParseTimestamp(input.BreachAt)
		if err != nil {
			return nil, apperrors.NewInvalidTimestamp("breach_at", err)
		}
		breachAt = &parsed
	case input.CreatedAt != "":
		computed, err := s.engine.ComputeBreachAtString(input.Priority, input.CreatedAt)
		if err != nil {
			return nil, apperrors.NewInvalidTimestamp("created_at", err)
		}
		breachAt = &computed
	}

	result.Snapshot = s.engine.Evaluate(breachAt, input.TicketStatus, now)
	s.observe(result.Snapshot.Status)
	return result, nil
}

// TicketSLA derives the live SLA snapshot of a stored ticket.
func (s *SLAService) TicketSLA(ticket *domain.Ticket, now time.Time) sla.Snapshot {
	snap := s.engine.Evaluate(ticket.SLABreachAt, string(ticket.Status), now)
	s.observe(snap.Status)
	return snap
}

// Summary counts tickets per SLA status at now.
func (s *SLAService) Summary(ctx context.Context, filter TicketListFilter, now time.Time) (map[sla.Status]int, error) {
	counts := make(map[sla.Status]int, len(sla.Statuses))
	for _, st := range sla.Statuses {
		counts[st] = 0
	}
	err := s.eachTicket(ctx, filter, func(t *domain.Ticket) {
		counts[s.engine.ClassifyStatus(t.SLABreachAt, string(t.Status), now)]++
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// eachTicket walks every ticket matching filter page by page.
func (s *SLAService) eachTicket(ctx context.Context, filter TicketListFilter, fn func(*domain.Ticket)) error {
	if s.tickets == nil {
		return nil
	}
	repoFilter := filter.repository()
	repoFilter.Limit = repository.MaxPageSize
	repoFilter.Offset = 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := s.tickets.List(ctx, repoFilter)
		if err != nil {
			return err
		}
		for i := range page {
			fn(&page[i])
		}
		if len(page) < repoFilter.Limit {
			return nil
		}
		repoFilter.Offset += len(page)
	}
}

func (s *SLAService) observe(status sla.Status) {
	if s.observer != nil {
		s.observer.ObserveSLAStatus(status)
	}
}
