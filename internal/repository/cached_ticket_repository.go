package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

const ticketCachePrefix = "ticket:"

// CachedTicketRepository is a read-through Redis cache in front of another
// TicketRepository. Cache failures are logged and never fail the call.
type CachedTicketRepository struct {
	inner  TicketRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketRepository wraps inner. A nil client disables caching.
func NewCachedTicketRepository(inner TicketRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) TicketRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTicketRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *CachedTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.inner.Create(ctx, ticket); err != nil {
		return err
	}
	r.store(ctx, ticket)
	return nil
}

func (r *CachedTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.inner.Update(ctx, ticket); err != nil {
		r.evict(ctx, ticket.ID)
		return err
	}
	r.store(ctx, ticket)
	return nil
}

func (r *CachedTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	raw, err := r.client.Get(ctx, ticketCachePrefix+id).Bytes()
	switch {
	case err == nil:
		var ticket domain.Ticket
		if jsonErr := json.Unmarshal(raw, &ticket); jsonErr == nil {
			return &ticket, nil
		}
		r.evict(ctx, id)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("ticket cache read failed", zap.String("ticket_id", id), zap.Error(err))
	}

	ticket, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, ticket)
	return ticket, nil
}

func (r *CachedTicketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.inner.GetByNumber(ctx, number)
}

func (r *CachedTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	return r.inner.List(ctx, filter)
}

func (r *CachedTicketRepository) store(ctx context.Context, ticket *domain.Ticket) {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, ticketCachePrefix+ticket.ID, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("ticket cache write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (r *CachedTicketRepository) evict(ctx context.Context, id string) {
	if err := r.client.Del(ctx, ticketCachePrefix+id).Err(); err != nil {
		r.logger.Warn("ticket cache evict failed", zap.String("ticket_id", id), zap.Error(err))
	}
}
