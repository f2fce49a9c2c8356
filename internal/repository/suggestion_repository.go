package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// SuggestionRepository persists triage suggestions. Records are created
// only by the orchestrator and only for successful runs.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.TriageSuggestion) error
	Update(ctx context.Context, suggestion *domain.TriageSuggestion) error
	GetByID(ctx context.Context, id string) (*domain.TriageSuggestion, error)
	GetLatestByTicket(ctx context.Context, ticketID string) (*domain.TriageSuggestion, error)
}

type suggestionRepository struct {
	pool *pgxpool.Pool
}

// NewSuggestionRepository instantiates repository.
func NewSuggestionRepository(pool *pgxpool.Pool) SuggestionRepository {
	return &suggestionRepository{pool: pool}
}

const suggestionColumns = `id, ticket_id, trace_id, predicted_category, article_ids, draft_reply,
               confidence, auto_closed, accepted, decided_by_id, decided_at, reject_reason,
               model_provider, model_name, prompt_version, latency_ms, created_at`

func (r *suggestionRepository) Create(ctx context.Context, suggestion *domain.TriageSuggestion) error {
	const query = `
        INSERT INTO triage_suggestions
            (ticket_id, trace_id, predicted_category, article_ids, draft_reply, confidence,
             auto_closed, model_provider, model_name, prompt_version, latency_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		suggestion.TicketID,
		suggestion.TraceID,
		suggestion.PredictedCategory,
		suggestion.ArticleIDs,
		suggestion.DraftReply,
		suggestion.Confidence,
		suggestion.AutoClosed,
		suggestion.ModelProvider,
		suggestion.ModelName,
		suggestion.PromptVersion,
		suggestion.LatencyMS,
	).Scan(&suggestion.ID, &suggestion.CreatedAt)
}

func (r *suggestionRepository) Update(ctx context.Context, suggestion *domain.TriageSuggestion) error {
	const query = `
        UPDATE triage_suggestions SET accepted=$1, decided_by_id=$2, decided_at=$3, reject_reason=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		suggestion.Accepted,
		suggestion.DecidedByID,
		suggestion.DecidedAt,
		suggestion.RejectReason,
		suggestion.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id string) (*domain.TriageSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM triage_suggestions WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *suggestionRepository) GetLatestByTicket(ctx context.Context, ticketID string) (*domain.TriageSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM triage_suggestions
        WHERE ticket_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *suggestionRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.TriageSuggestion, error) {
	var suggestion domain.TriageSuggestion
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&suggestion.ID,
		&suggestion.TicketID,
		&suggestion.TraceID,
		&suggestion.PredictedCategory,
		&suggestion.ArticleIDs,
		&suggestion.DraftReply,
		&suggestion.Confidence,
		&suggestion.AutoClosed,
		&suggestion.Accepted,
		&suggestion.DecidedByID,
		&suggestion.DecidedAt,
		&suggestion.RejectReason,
		&suggestion.ModelProvider,
		&suggestion.ModelName,
		&suggestion.PromptVersion,
		&suggestion.LatencyMS,
		&suggestion.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &suggestion, nil
}
