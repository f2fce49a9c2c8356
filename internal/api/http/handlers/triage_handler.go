package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/audit"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// TriageHandler exposes the pipeline, suggestion review and audit trail.
type TriageHandler struct {
	triage  *service.TriageService
	tickets *service.TicketService
	events  repository.AuditRepository
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageService *service.TriageService, ticketService *service.TicketService, auditRepo repository.AuditRepository) *TriageHandler {
	return &TriageHandler{triage: triageService, tickets: ticketService, events: auditRepo}
}

// TriggerTriage POST /tickets/:id/triage dispatches a manual run.
func (h *TriageHandler) TriggerTriage(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	traceID, err := h.tickets.TriggerTriage(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.TriageTriggerResponse{
		TicketID: ticketID,
		TraceID:  traceID,
	}})
}

// GetSuggestion GET /tickets/:id/suggestion returns the latest suggestion,
// null when the ticket has never been triaged.
func (h *TriageHandler) GetSuggestion(c *fiber.Ctx) error {
	suggestion, err := h.triage.GetSuggestion(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if suggestion == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewSuggestionResponse(suggestion)})
}

// AcceptSuggestion POST /suggestions/:id/accept.
func (h *TriageHandler) AcceptSuggestion(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	suggestion, err := h.triage.AcceptSuggestion(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSuggestionResponse(suggestion)})
}

// RejectSuggestion POST /suggestions/:id/reject.
func (h *TriageHandler) RejectSuggestion(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectSuggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suggestion, err := h.triage.RejectSuggestion(c.UserContext(), c.Params("id"), principal.User.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSuggestionResponse(suggestion)})
}

// TicketAudit GET /tickets/:id/audit returns the full trail for a ticket.
func (h *TriageHandler) TicketAudit(c *fiber.Ctx) error {
	trail, err := h.events.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEventResponses(trail)})
}

// TraceAudit GET /audit/traces/:traceId returns one run's events in order.
func (h *TriageHandler) TraceAudit(c *fiber.Ctx) error {
	trail, err := h.events.ListByTrace(c.UserContext(), c.Params("traceId"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditEventResponses(trail)})
}

// ExportTicketAudit GET /tickets/:id/audit/export streams the trail as NDJSON.
func (h *TriageHandler) ExportTicketAudit(c *fiber.Ctx) error {
	trail, err := h.events.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	var buf bytes.Buffer
	if err := audit.ExportNDJSON(&buf, trail); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	return c.Send(buf.Bytes())
}
