package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// AuditRepository is the append-only event store. There is deliberately no
// update or delete: entries are immutable once written.
type AuditRepository interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEvent, error)
	ListByTrace(ctx context.Context, traceID string) ([]domain.AuditEvent, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	const query = `
        INSERT INTO audit_events (ticket_id, trace_id, actor_kind, actor_id, action, metadata)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return r.pool.QueryRow(ctx, query,
		event.TicketID,
		event.TraceID,
		event.ActorKind,
		event.ActorID,
		event.Action,
		metadata,
	).Scan(&event.ID, &event.CreatedAt)
}

// ListByTicket returns a ticket's events ordered by timestamp.
func (r *auditRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEvent, error) {
	const query = `
        SELECT id, ticket_id, trace_id, actor_kind, actor_id, action, metadata, created_at
        FROM audit_events WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEvents(rows)
}

// ListByTrace returns a run's events in append order.
func (r *auditRepository) ListByTrace(ctx context.Context, traceID string) ([]domain.AuditEvent, error) {
	const query = `
        SELECT id, ticket_id, trace_id, actor_kind, actor_id, action, metadata, created_at
        FROM audit_events WHERE trace_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEvents(rows)
}

func scanAuditEvents(rows pgx.Rows) ([]domain.AuditEvent, error) {
	var result []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.TraceID,
			&event.ActorKind,
			&event.ActorID,
			&event.Action,
			&event.Metadata,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
