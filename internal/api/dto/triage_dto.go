package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// SuggestionResponse is the API shape of a triage suggestion.
type SuggestionResponse struct {
	ID                string                `json:"id"`
	TicketID          string                `json:"ticket_id"`
	TraceID           string                `json:"trace_id"`
	PredictedCategory domain.TicketCategory `json:"predicted_category"`
	ArticleIDs        []string              `json:"article_ids"`
	DraftReply        string                `json:"draft_reply"`
	Confidence        float64               `json:"confidence"`
	AutoClosed        bool                  `json:"auto_closed"`
	Accepted          *bool                 `json:"accepted"`
	DecidedByID       *string               `json:"decided_by_id,omitempty"`
	DecidedAt         *time.Time            `json:"decided_at,omitempty"`
	RejectReason      *string               `json:"reject_reason,omitempty"`
	ModelProvider     string                `json:"model_provider"`
	ModelName         string                `json:"model_name"`
	PromptVersion     string                `json:"prompt_version"`
	LatencyMS         int64                 `json:"latency_ms"`
	CreatedAt         time.Time             `json:"created_at"`
}

// RejectSuggestionRequest payload.
type RejectSuggestionRequest struct {
	Reason string `json:"reason"`
}

// AuditEventResponse is one audit trail entry.
type AuditEventResponse struct {
	ID        string             `json:"id"`
	TicketID  string             `json:"ticket_id"`
	TraceID   string             `json:"trace_id"`
	ActorKind domain.ActorKind   `json:"actor_kind"`
	ActorID   *string            `json:"actor_id,omitempty"`
	Action    domain.AuditAction `json:"action"`
	Metadata  map[string]any     `json:"metadata"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewSuggestionResponse maps a domain suggestion.
func NewSuggestionResponse(s *domain.TriageSuggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:                s.ID,
		TicketID:          s.TicketID,
		TraceID:           s.TraceID,
		PredictedCategory: s.PredictedCategory,
		ArticleIDs:        s.ArticleIDs,
		DraftReply:        s.DraftReply,
		Confidence:        s.Confidence,
		AutoClosed:        s.AutoClosed,
		Accepted:          s.Accepted,
		DecidedByID:       s.DecidedByID,
		DecidedAt:         s.DecidedAt,
		RejectReason:      s.RejectReason,
		ModelProvider:     s.ModelProvider,
		ModelName:         s.ModelName,
		PromptVersion:     s.PromptVersion,
		LatencyMS:         s.LatencyMS,
		CreatedAt:         s.CreatedAt,
	}
}

// NewAuditEventResponses maps a trail slice.
func NewAuditEventResponses(events []domain.AuditEvent) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, AuditEventResponse{
			ID:        event.ID,
			TicketID:  event.TicketID,
			TraceID:   event.TraceID,
			ActorKind: event.ActorKind,
			ActorID:   event.ActorID,
			Action:    event.Action,
			Metadata:  event.Metadata,
			CreatedAt: event.CreatedAt,
		})
	}
	return out
}
