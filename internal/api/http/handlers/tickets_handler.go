package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

const defaultPageSize = 20

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.CreateTicketInput{
		RequesterID: principal.User.ID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket)})
}

// ListTickets GET /tickets. Requesters see their own tickets; agents and
// admins see everything the filter matches.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := parseTicketFilter(c)
	if principal.Role == domain.RoleUser {
		requesterID := principal.User.ID
		filter.RequesterID = &requesterID
	}

	breachingSLA := c.QueryBool("breaching_sla")
	tickets, err := h.service.ListTickets(c.UserContext(), filter, breachingSLA)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, replies, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if principal.Role == domain.RoleUser {
		if ticket.RequesterID != principal.User.ID {
			return apperrors.NewForbidden("not your ticket")
		}
		replies = visibleReplies(replies)
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, replies)})
}

// AddReply POST /tickets/:id/replies.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if principal.Role == domain.RoleUser && req.Internal {
		return apperrors.NewForbidden("internal notes are agent-only")
	}

	actorID := principal.User.ID
	reply, err := h.service.AddReply(c.UserContext(), c.Params("id"), principal.ActorKind(), &actorID, req.Body, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ReplyResponse{
		ID:         reply.ID,
		AuthorKind: reply.AuthorKind,
		AuthorID:   reply.AuthorID,
		Body:       reply.Body,
		Internal:   reply.Internal,
		CreatedAt:  reply.CreatedAt,
	}})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	actorID := principal.User.ID
	ticket, err := h.service.CloseTicket(c.UserContext(), c.Params("id"), principal.ActorKind(), &actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket)})
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	actorID := principal.User.ID
	ticket, err := h.service.ReopenTicket(c.UserContext(), c.Params("id"), principal.ActorKind(), &actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(*ticket)})
}

func parseTicketFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{
		Limit:  defaultPageSize,
		Offset: 0,
	}
	if raw := c.Query("status"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(status)))
		}
	}
	if raw := c.Query("category"); raw != "" {
		for _, category := range strings.Split(raw, ",") {
			filter.Categories = append(filter.Categories, domain.TicketCategory(strings.TrimSpace(category)))
		}
	}
	if raw := c.Query("assignee_id"); raw != "" {
		filter.AssigneeID = &raw
	}
	if raw := c.Query("q"); raw != "" {
		filter.SearchTerm = &raw
	}
	if raw := c.Query("created_from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &ts
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 && size <= 100 {
			filter.Limit = size
		}
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 1 {
			filter.Offset = (page - 1) * filter.Limit
		}
	}
	return filter
}

func visibleReplies(replies []domain.TicketReply) []domain.TicketReply {
	out := make([]domain.TicketReply, 0, len(replies))
	for _, reply := range replies {
		if reply.Internal {
			continue
		}
		out = append(out, reply)
	}
	return out
}
