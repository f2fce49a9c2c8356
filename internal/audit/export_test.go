package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

func TestExportNDJSON(t *testing.T) {
	actorID := "agent-1"
	events := []domain.AuditEvent{
		{
			TicketID:  "t1",
			TraceID:   "trace-1",
			ActorKind: domain.ActorSystem,
			Action:    domain.AuditTriageStarted,
			Metadata:  map[string]any{"status": "open"},
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			TicketID:  "t1",
			TraceID:   "trace-1",
			ActorKind: domain.ActorAgent,
			ActorID:   &actorID,
			Action:    domain.AuditSuggestionAccepted,
			CreatedAt: time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := ExportNDJSON(&buf, events); err != nil {
		t.Fatalf("ExportNDJSON: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if first["action"] != "TRIAGE_STARTED" {
		t.Fatalf("action = %v, want TRIAGE_STARTED", first["action"])
	}
	if first["actor_kind"] != "system" {
		t.Fatalf("actor_kind = %v, want system", first["actor_kind"])
	}
	if _, present := first["actor_id"]; present {
		t.Fatal("nil actor_id must be omitted")
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if second["actor_id"] != "agent-1" {
		t.Fatalf("actor_id = %v, want agent-1", second["actor_id"])
	}
	// nil metadata serializes as an empty object, never null
	if metadata, ok := second["metadata"].(map[string]any); !ok || metadata == nil {
		t.Fatalf("metadata = %v, want empty object", second["metadata"])
	}
}

func TestExportNDJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportNDJSON(&buf, nil); err != nil {
		t.Fatalf("ExportNDJSON: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("output = %q, want empty", buf.String())
	}
}
