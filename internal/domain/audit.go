package domain

import "time"

// AuditAction enumerates the ticket and suggestion lifecycle events the
// audit trail records.
type AuditAction string

const (
	AuditTicketCreated      AuditAction = "TICKET_CREATED"
	AuditTriageStarted      AuditAction = "TRIAGE_STARTED"
	AuditTicketClassified   AuditAction = "TICKET_CLASSIFIED"
	AuditKBRetrieved        AuditAction = "KB_RETRIEVED"
	AuditDraftGenerated     AuditAction = "DRAFT_GENERATED"
	AuditTicketAutoClosed   AuditAction = "TICKET_AUTO_CLOSED"
	AuditAssignedToHuman    AuditAction = "ASSIGNED_TO_HUMAN"
	AuditTriageFailed       AuditAction = "TRIAGE_FAILED"
	AuditSuggestionAccepted AuditAction = "SUGGESTION_ACCEPTED"
	AuditSuggestionRejected AuditAction = "SUGGESTION_REJECTED"
	AuditTicketReopened     AuditAction = "TICKET_REOPENED"
	AuditTicketClosed       AuditAction = "TICKET_CLOSED"
)

// AuditEvent is one append-only entry in the trail of what the pipeline
// (or a human acting on its output) did and why. Entries are never edited
// or deleted.
type AuditEvent struct {
	ID        string
	TicketID  string
	TraceID   string
	ActorKind ActorKind
	ActorID   *string
	Action    AuditAction
	Metadata  map[string]any
	CreatedAt time.Time
}
