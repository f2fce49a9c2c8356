package events

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketTriaged      EventType = "ticket_triaged"
	EventTicketAutoResolved EventType = "ticket_auto_resolved"
	EventTicketReplyAdded   EventType = "ticket_reply_added"
	EventTicketReopened     EventType = "ticket_reopened"
	EventSuggestionAccepted EventType = "suggestion_accepted"
	EventSuggestionRejected EventType = "suggestion_rejected"
	EventTriageFailed       EventType = "triage_failed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind domain.ActorKind `json:"kind"`
	ID   *string          `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequesterID string `json:"requester_id"`
	Title       string `json:"title"`
	TraceID     string `json:"trace_id"`
}

// TicketTriagedPayload payload.
type TicketTriagedPayload struct {
	TraceID      string                `json:"trace_id"`
	Category     domain.TicketCategory `json:"category"`
	Confidence   float64               `json:"confidence"`
	Outcome      string                `json:"outcome"`
	SuggestionID string                `json:"suggestion_id"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
}

// TicketReplyAddedPayload payload.
type TicketReplyAddedPayload struct {
	ReplyID     string           `json:"reply_id"`
	AuthorKind  domain.ActorKind `json:"author_kind"`
	Internal    bool             `json:"internal"`
	BodyPreview string           `json:"body_preview"`
}

// SuggestionDecidedPayload payload for accept/reject events.
type SuggestionDecidedPayload struct {
	SuggestionID string  `json:"suggestion_id"`
	Accepted     bool    `json:"accepted"`
	Reason       *string `json:"reason,omitempty"`
}

// TriageFailedPayload payload.
type TriageFailedPayload struct {
	TraceID string `json:"trace_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
