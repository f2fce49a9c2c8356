package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Store is the append-only persistence slice the logger writes through.
type Store interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
}

// Sink receives a copy of every recorded event, best effort. Used for the
// optional Kafka export stream.
type Sink interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

// Logger is the system's only durable record of what the pipeline did and
// why. Entries are appended, never edited or removed.
type Logger struct {
	store Store
	sink  Sink
	log   *zap.Logger
}

// NewLogger constructs the audit logger. sink may be nil.
func NewLogger(store Store, sink Sink, log *zap.Logger) *Logger {
	return &Logger{store: store, sink: sink, log: log}
}

// Record appends one event. Persistence failure is returned to the caller;
// sink failure is logged and swallowed so the export stream can never
// break a triage run.
func (l *Logger) Record(ctx context.Context, ticketID, traceID string, actorKind domain.ActorKind, actorID *string, action domain.AuditAction, metadata map[string]any) (*domain.AuditEvent, error) {
	event := &domain.AuditEvent{
		TicketID:  ticketID,
		TraceID:   traceID,
		ActorKind: actorKind,
		ActorID:   actorID,
		Action:    action,
		Metadata:  metadata,
	}
	if err := l.store.Append(ctx, event); err != nil {
		return nil, err
	}

	l.log.Info("audit",
		zap.String("action", string(action)),
		zap.String("ticket_id", ticketID),
		zap.String("trace_id", traceID),
		zap.String("actor_kind", string(actorKind)),
	)

	if l.sink != nil {
		if err := l.sink.Publish(ctx, *event); err != nil {
			l.log.Warn("audit sink publish failed", zap.Error(err), zap.String("trace_id", traceID))
		}
	}
	return event, nil
}
