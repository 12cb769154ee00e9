package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	sla     *service.SLAService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, slaService *service.SLAService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, sla: slaService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	requester := req.RequesterID
	if strings.TrimSpace(requester) == "" {
		requester = actorID(c)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		RequesterID: requester,
		Title:       req.Title,
		Description: req.Description,
		Summary:     req.Summary,
		Transcript:  req.Transcript,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	snap := h.sla.TicketSLA(ticket, h.sla.Now())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket, snap)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	now, err := evaluationTime(c, h.sla)
	if err != nil {
		return err
	}
	filter := parseListFilter(c)
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i], h.sla.TicketSLA(&tickets[i], now)))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"limit": filter.Limit, "offset": filter.Offset, "count": len(items)},
	})
}

// GetTicket GET /tickets/:id. Ticket numbers (VM-XXXXXX) are accepted too.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	now, err := evaluationTime(c, h.sla)
	if err != nil {
		return err
	}
	ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.sla.TicketSLA(ticket, now))})
}

// GetTicketSLA GET /tickets/:id/sla.
func (h *TicketsHandler) GetTicketSLA(c *fiber.Ctx) error {
	now, err := evaluationTime(c, h.sla)
	if err != nil {
		return err
	}
	ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshotResponse(h.sla.TicketSLA(ticket, now))})
}

// ListActivity GET /tickets/:id/activity.
func (h *TicketsHandler) ListActivity(c *fiber.Ctx) error {
	ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListActivity(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ActivityResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	ticket, err = h.tickets.UpdateStatus(c.UserContext(), actorID(c), ticket.ID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.sla.TicketSLA(ticket, h.sla.Now()))})
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	ticket, err = h.tickets.UpdatePriority(c.UserContext(), actorID(c), ticket.ID, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.sla.TicketSLA(ticket, h.sla.Now()))})
}

// UpdateAssignee PATCH /tickets/:id/assignee. A null or empty assignee_id
// unassigns the ticket.
func (h *TicketsHandler) UpdateAssignee(c *fiber.Ctx) error {
	var req dto.UpdateAssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lookup(c)
	if err != nil {
		return err
	}
	ticket, err = h.tickets.Assign(c.UserContext(), actorID(c), ticket.ID, req.Assignee())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.sla.TicketSLA(ticket, h.sla.Now()))})
}

// BulkUpdateStatus POST /tickets/bulk/status.
func (h *TicketsHandler) BulkUpdateStatus(c *fiber.Ctx) error {
	var req dto.BulkStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.tickets.BulkUpdateStatus(c.UserContext(), actorID(c), req.IDs, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.bulkResponse(result)})
}

// BulkAssign POST /tickets/bulk/assignee.
func (h *TicketsHandler) BulkAssign(c *fiber.Ctx) error {
	var req dto.BulkAssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	assignee := ""
	if req.AssigneeID != nil {
		assignee = *req.AssigneeID
	}
	result, err := h.tickets.BulkAssign(c.UserContext(), actorID(c), req.IDs, assignee)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.bulkResponse(result)})
}

func (h *TicketsHandler) bulkResponse(result *service.BulkResult) dto.BulkResponse {
	now := h.sla.Now()
	resp := dto.BulkResponse{
		Updated: make([]dto.TicketResponse, 0, len(result.Updated)),
		Failed:  make([]dto.BulkFailure, 0, len(result.Failed)),
	}
	for i := range result.Updated {
		resp.Updated = append(resp.Updated, ticketResponse(&result.Updated[i], h.sla.TicketSLA(&result.Updated[i], now)))
	}
	for _, f := range result.Failed {
		de := apperrors.ToDomainError(f.Err)
		resp.Failed = append(resp.Failed, dto.BulkFailure{ID: f.TicketID, Code: de.Code, Message: de.Message})
	}
	return resp
}

// ExportCSV GET /tickets/export.csv. ids= narrows the export to a selection.
func (h *TicketsHandler) ExportCSV(c *fiber.Ctx) error {
	now, err := evaluationTime(c, h.sla)
	if err != nil {
		return err
	}
	filter := parseListFilter(c)
	ctx := c.UserContext()

	// buffered so a failed page still yields a JSON error
	var buf bytes.Buffer
	if err := h.sla.ExportCSV(ctx, &buf, filter, now); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="tickets-%s.csv"`, now.UTC().Format("20060102")))
	return c.Send(buf.Bytes())
}

func (h *TicketsHandler) lookup(c *fiber.Ctx) (*domain.Ticket, error) {
	id := utils.CopyString(strings.TrimSpace(c.Params("id")))
	if strings.HasPrefix(strings.ToUpper(id), "VM-") {
		return h.tickets.GetTicketByNumber(c.UserContext(), id)
	}
	return h.tickets.GetTicket(c.UserContext(), id)
}
