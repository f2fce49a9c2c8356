package audit

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// exportLine is the NDJSON shape consumed by operational tooling.
type exportLine struct {
	TicketID  string         `json:"ticket_id"`
	TraceID   string         `json:"trace_id"`
	ActorKind string         `json:"actor_kind"`
	ActorID   *string        `json:"actor_id,omitempty"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// ExportNDJSON writes one JSON object per line, one line per event, in the
// order given (callers pass timestamp-ordered slices).
func ExportNDJSON(w io.Writer, events []domain.AuditEvent) error {
	encoder := json.NewEncoder(w)
	for _, event := range events {
		metadata := event.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		line := exportLine{
			TicketID:  event.TicketID,
			TraceID:   event.TraceID,
			ActorKind: string(event.ActorKind),
			ActorID:   event.ActorID,
			Action:    string(event.Action),
			Metadata:  metadata,
			Timestamp: event.CreatedAt,
		}
		if err := encoder.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
