package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// SLAHandler serves policy, evaluation and dashboard endpoints.
type SLAHandler struct {
	sla *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{sla: slaService}
}

// Policy GET /sla/policy.
func (h *SLAHandler) Policy(c *fiber.Ctx) error {
	view := h.sla.Policy()
	entries := make([]dto.PolicyEntry, 0, len(sla.Priorities))
	for _, p := range sla.Priorities {
		entries = append(entries, dto.PolicyEntry{Priority: p, DurationMinutes: view.Minutes[p]})
	}
	return c.JSON(fiber.Map{"data": dto.PolicyResponse{
		Priorities:           entries,
		FallbackPriority:     view.Fallback,
		WarningWindowMinutes: int(view.WarningWindow.Minutes()),
	}})
}

// Evaluate POST /sla/evaluate.
func (h *SLAHandler) Evaluate(c *fiber.Ctx) error {
	var req dto.EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.sla.Evaluate(service.EvaluateInput{
		Priority:     req.Priority,
		CreatedAt:    req.CreatedAt,
		BreachAt:     req.BreachAt,
		TicketStatus: req.Status,
		Now:          req.Now,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EvaluateResponse{
		Priority:        result.Priority,
		DurationMinutes: result.DurationMinutes,
		SLA:             snapshotResponse(result.Snapshot),
	}})
}

// Summary GET /sla/summary.
func (h *SLAHandler) Summary(c *fiber.Ctx) error {
	now, err := evaluationTime(c, h.sla)
	if err != nil {
		return err
	}
	counts, err := h.sla.Summary(c.UserContext(), parseListFilter(c), now)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(fiber.Map{"data": dto.SummaryResponse{
		Counts:      counts,
		Total:       total,
		EvaluatedAt: now.UTC(),
	}})
}
