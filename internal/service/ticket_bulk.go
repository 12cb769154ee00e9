package service

import (
	"context"
	"strings"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// MaxBulkTickets caps the ids accepted by one bulk call.
const MaxBulkTickets = 200

// BulkFailure reports one ticket a bulk call could not change.
type BulkFailure struct {
	TicketID string
	Err      error
}

// BulkResult lists the tickets a bulk call changed and those it could not.
type BulkResult struct {
	Updated []domain.Ticket
	Failed  []BulkFailure
}

// BulkUpdateStatus applies UpdateStatus to every id. One failing ticket
// does not stop the others.
func (s *TicketService) BulkUpdateStatus(ctx context.Context, actorID string, ticketIDs []string, rawStatus string) (*BulkResult, error) {
	if _, ok := domain.ParseTicketStatus(rawStatus); !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{
			"status":  rawStatus,
			"allowed": domain.TicketStatuses,
		})
	}
	return s.bulk(ctx, ticketIDs, func(id string) (*domain.Ticket, error) {
		return s.UpdateStatus(ctx, actorID, id, rawStatus)
	})
}

// BulkAssign applies Assign to every id.
func (s *TicketService) BulkAssign(ctx context.Context, actorID string, ticketIDs []string, assigneeID string) (*BulkResult, error) {
	return s.bulk(ctx, ticketIDs, func(id string) (*domain.Ticket, error) {
		return s.Assign(ctx, actorID, id, assigneeID)
	})
}

func (s *TicketService) bulk(ctx context.Context, ticketIDs []string, apply func(string) (*domain.Ticket, error)) (*BulkResult, error) {
	ids := uniqueIDs(ticketIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("ids are required", nil)
	}
	if len(ids) > MaxBulkTickets {
		return nil, apperrors.NewValidationError("too many ids", map[string]any{"max": MaxBulkTickets})
	}
	result := &BulkResult{Updated: make([]domain.Ticket, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ticket, err := apply(id)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{TicketID: id, Err: err})
			continue
		}
		result.Updated = append(result.Updated, *ticket)
	}
	return result, nil
}

func uniqueIDs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
