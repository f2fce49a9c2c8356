package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TriageConfigRepository stores the single live pipeline configuration.
// The orchestrator fetches it fresh at the start of every run.
type TriageConfigRepository interface {
	GetOrCreateDefault(ctx context.Context) (domain.TriageConfig, error)
	Update(ctx context.Context, cfg *domain.TriageConfig) error
}

type triageConfigRepository struct {
	pool *pgxpool.Pool
}

// NewTriageConfigRepository instantiates repository.
func NewTriageConfigRepository(pool *pgxpool.Pool) TriageConfigRepository {
	return &triageConfigRepository{pool: pool}
}

const configColumns = `id, auto_close_enabled, confidence_threshold, category_thresholds,
               sla_hours, max_retries, retry_backoff_ms, timeout_ms, updated_at, updated_by`

func (r *triageConfigRepository) GetOrCreateDefault(ctx context.Context) (domain.TriageConfig, error) {
	query := `SELECT ` + configColumns + ` FROM triage_configs ORDER BY updated_at ASC LIMIT 1`
	cfg, err := r.fetchSingle(ctx, query)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.TriageConfig{}, err
	}

	defaults := domain.DefaultTriageConfig()
	const insert = `
        INSERT INTO triage_configs (auto_close_enabled, confidence_threshold, category_thresholds,
            sla_hours, max_retries, retry_backoff_ms, timeout_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, updated_at`
	if err := r.pool.QueryRow(ctx, insert,
		defaults.AutoCloseEnabled,
		defaults.ConfidenceThreshold,
		thresholdsToJSON(defaults.CategoryThresholds),
		defaults.SLAHours,
		defaults.MaxRetries,
		defaults.RetryBackoffMS,
		defaults.TimeoutMS,
	).Scan(&defaults.ID, &defaults.UpdatedAt); err != nil {
		return domain.TriageConfig{}, err
	}
	return defaults, nil
}

func (r *triageConfigRepository) Update(ctx context.Context, cfg *domain.TriageConfig) error {
	const query = `
        UPDATE triage_configs SET auto_close_enabled=$1, confidence_threshold=$2,
            category_thresholds=$3, sla_hours=$4, max_retries=$5, retry_backoff_ms=$6,
            timeout_ms=$7, updated_at=NOW(), updated_by=$8
        WHERE id=$9
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		cfg.AutoCloseEnabled,
		cfg.ConfidenceThreshold,
		thresholdsToJSON(cfg.CategoryThresholds),
		cfg.SLAHours,
		cfg.MaxRetries,
		cfg.RetryBackoffMS,
		cfg.TimeoutMS,
		cfg.UpdatedBy,
		cfg.ID,
	).Scan(&cfg.UpdatedAt)
}

func (r *triageConfigRepository) fetchSingle(ctx context.Context, query string) (domain.TriageConfig, error) {
	var cfg domain.TriageConfig
	thresholds := map[string]float64{}
	if err := r.pool.QueryRow(ctx, query).Scan(
		&cfg.ID,
		&cfg.AutoCloseEnabled,
		&cfg.ConfidenceThreshold,
		&thresholds,
		&cfg.SLAHours,
		&cfg.MaxRetries,
		&cfg.RetryBackoffMS,
		&cfg.TimeoutMS,
		&cfg.UpdatedAt,
		&cfg.UpdatedBy,
	); err != nil {
		return domain.TriageConfig{}, err
	}
	cfg.CategoryThresholds = make(map[domain.TicketCategory]float64, len(thresholds))
	for category, threshold := range thresholds {
		cfg.CategoryThresholds[domain.TicketCategory(category)] = threshold
	}
	return cfg, nil
}

func thresholdsToJSON(thresholds map[domain.TicketCategory]float64) map[string]float64 {
	out := make(map[string]float64, len(thresholds))
	for category, threshold := range thresholds {
		out[string(category)] = threshold
	}
	return out
}
