package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AddReplyRequest payload.
type AddReplyRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	Title       string                `json:"title"`
	Category    domain.TicketCategory `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	AssigneeID  *string               `json:"assignee_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	RequesterID  string                `json:"requester_id"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	SuggestionID *string               `json:"suggestion_id,omitempty"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ResolvedAt   *time.Time            `json:"resolved_at,omitempty"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
	Replies      []ReplyResponse       `json:"replies"`
}

// ReplyResponse represents one thread entry.
type ReplyResponse struct {
	ID         string           `json:"id"`
	AuthorKind domain.ActorKind `json:"author_kind"`
	AuthorID   *string          `json:"author_id,omitempty"`
	Body       string           `json:"body"`
	Internal   bool             `json:"internal"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TriageTriggerResponse acknowledges a manual triage dispatch.
type TriageTriggerResponse struct {
	TicketID string `json:"ticket_id"`
	TraceID  string `json:"trace_id"`
}

// NewTicketSummary maps a domain ticket to its summary shape.
func NewTicketSummary(ticket domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		Title:       ticket.Title,
		Category:    ticket.Category,
		Status:      ticket.Status,
		AssigneeID:  ticket.AssigneeID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket and its replies.
func NewTicketDetail(ticket *domain.Ticket, replies []domain.TicketReply) TicketDetailResponse {
	out := TicketDetailResponse{
		ID:           ticket.ID,
		ExternalKey:  ticket.ExternalKey,
		RequesterID:  ticket.RequesterID,
		AssigneeID:   ticket.AssigneeID,
		SuggestionID: ticket.SuggestionID,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Category:     ticket.Category,
		Status:       ticket.Status,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
		ResolvedAt:   ticket.ResolvedAt,
		ClosedAt:     ticket.ClosedAt,
		Replies:      make([]ReplyResponse, 0, len(replies)),
	}
	for _, reply := range replies {
		out.Replies = append(out.Replies, ReplyResponse{
			ID:         reply.ID,
			AuthorKind: reply.AuthorKind,
			AuthorID:   reply.AuthorID,
			Body:       reply.Body,
			Internal:   reply.Internal,
			CreatedAt:  reply.CreatedAt,
		})
	}
	return out
}
