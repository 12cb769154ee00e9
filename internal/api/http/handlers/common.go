package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// evaluationTime returns the optional ?now= override, or the service clock.
func evaluationTime(c *fiber.Ctx, slaService *service.SLAService) (time.Time, error) {
	raw := c.Query("now")
	if raw == "" {
		return slaService.Now(), nil
	}
	now, err := sla.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidTimestamp("now", err)
	}
	return now, nil
}

// actorID copies the header; fasthttp reuses its buffers after the request.
func actorID(c *fiber.Ctx) string {
	return utils.CopyString(strings.TrimSpace(c.Get(observability.ActorHeader)))
}

func parseListFilter(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToLower(part)))
	}
	for _, part := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, sla.NormalizePriority(part))
	}
	if v := strings.TrimSpace(c.Query("requester_id")); v != "" {
		filter.RequesterID = &v
	}
	if v := strings.TrimSpace(c.Query("assignee_id")); v != "" {
		filter.AssigneeID = &v
	}
	if v := strings.TrimSpace(c.Query("category")); v != "" {
		filter.Category = &v
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		filter.SearchTerm = &v
	}
	if raw := c.Query("ids"); raw != "" {
		filter.IDs = make([]string, 0)
		for _, id := range splitList(raw) {
			filter.IDs = append(filter.IDs, utils.CopyString(id))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func snapshotResponse(snap sla.Snapshot) dto.SLASnapshot {
	resp := dto.SLASnapshot{
		BreachAt:    snap.BreachAt,
		Status:      snap.Status,
		Remaining:   snap.Remaining,
		EvaluatedAt: snap.At,
	}
	if snap.BreachAt != nil {
		secs := int64(snap.Left / time.Second)
		resp.RemainingSeconds = &secs
	}
	return resp
}

func ticketResponse(ticket *domain.Ticket, snap sla.Snapshot) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		RequesterID:  ticket.RequesterID,
		AssigneeID:   ticket.AssigneeID,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Summary:      ticket.Summary,
		Transcript:   ticket.Transcript,
		Category:     ticket.Category,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		SLABreachAt:  ticket.SLABreachAt,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
		SLA:          snapshotResponse(snap),
	}
}
