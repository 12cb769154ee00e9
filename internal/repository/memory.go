package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory. It backs the
// service when no database is configured and is safe for concurrent use.
type MemoryTicketRepository struct {
	mu    sync.RWMutex
	store map[string]domain.Ticket
}

// NewMemoryTicketRepository returns an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{store: make(map[string]domain.Ticket)}
}

func (r *MemoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.store[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *MemoryTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[ticket.ID]; !ok {
		return ErrNotFound
	}
	ticket.UpdatedAt = time.Now().UTC()
	r.store[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *MemoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneTicket(t)
	return &out, nil
}

func (r *MemoryTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.store {
		if t.TicketNumber == number {
			out := cloneTicket(t)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	matched := make([]domain.Ticket, 0, len(r.store))
	for _, t := range r.store {
		if matchesFilter(t, filter) {
			matched = append(matched, cloneTicket(t))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesFilter(t domain.Ticket, filter TicketFilter) bool {
	if filter.IDs != nil && !containsValue(filter.IDs, t.ID) {
		return false
	}
	if filter.RequesterID != nil && t.RequesterID != *filter.RequesterID {
		return false
	}
	if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
		return false
	}
	if filter.Category != nil && t.Category != *filter.Category {
		return false
	}
	if len(filter.Statuses) > 0 && !containsValue(filter.Statuses, t.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsValue(filter.Priorities, t.Priority) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(t.TicketNumber), term) {
			return false
		}
	}
	return true
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		t.AssigneeID = &v
	}
	if t.Transcript != nil {
		v := *t.Transcript
		t.Transcript = &v
	}
	if t.SLABreachAt != nil {
		v := *t.SLABreachAt
		t.SLABreachAt = &v
	}
	return t
}

// MemoryActivityLogRepository keeps audit entries in process memory.
type MemoryActivityLogRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.ActivityLog
}

// NewMemoryActivityLogRepository returns an empty store.
func NewMemoryActivityLogRepository() *MemoryActivityLogRepository {
	return &MemoryActivityLogRepository{entries: make(map[string][]domain.ActivityLog)}
}

func (r *MemoryActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.entries[entry.TicketID] = append(r.entries[entry.TicketID], *entry)
	return nil
}

func (r *MemoryActivityLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ActivityLog, len(r.entries[ticketID]))
	copy(out, r.entries[ticketID])
	return out, nil
}
