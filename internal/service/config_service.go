package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// ConfigService exposes the live triage configuration to admins. Updates
// take effect on the next pipeline run; in-flight runs keep the snapshot
// they started with.
type ConfigService struct {
	configs repository.TriageConfigRepository
	logger  *zap.Logger
}

// TriageConfigUpdate carries the admin-editable fields. Nil pointers leave
// the current value untouched.
type TriageConfigUpdate struct {
	AutoCloseEnabled    *bool
	ConfidenceThreshold *float64
	CategoryThresholds  map[domain.TicketCategory]float64
	SLAHours            *int
	MaxRetries          *int
	RetryBackoffMS      *int
	TimeoutMS           *int
}

// NewConfigService constructs the config service.
func NewConfigService(configs repository.TriageConfigRepository, logger *zap.Logger) *ConfigService {
	return &ConfigService{configs: configs, logger: logger}
}

// GetConfig returns the live configuration, creating the default document
// on first read.
func (s *ConfigService) GetConfig(ctx context.Context) (domain.TriageConfig, error) {
	cfg, err := s.configs.GetOrCreateDefault(ctx)
	if err != nil {
		return domain.TriageConfig{}, apperrors.MapError(err)
	}
	return cfg, nil
}

// UpdateConfig validates and applies an admin edit.
func (s *ConfigService) UpdateConfig(ctx context.Context, update TriageConfigUpdate, actorID string) (domain.TriageConfig, error) {
	cfg, err := s.configs.GetOrCreateDefault(ctx)
	if err != nil {
		return domain.TriageConfig{}, apperrors.MapError(err)
	}

	if update.AutoCloseEnabled != nil {
		cfg.AutoCloseEnabled = *update.AutoCloseEnabled
	}
	if update.ConfidenceThreshold != nil {
		if err := validateThreshold(*update.ConfidenceThreshold); err != nil {
			return domain.TriageConfig{}, err
		}
		cfg.ConfidenceThreshold = *update.ConfidenceThreshold
	}
	if update.CategoryThresholds != nil {
		for category, threshold := range update.CategoryThresholds {
			if !domain.ValidCategory(category) {
				return domain.TriageConfig{}, apperrors.NewValidationError("unknown category", map[string]any{"category": string(category)})
			}
			if err := validateThreshold(threshold); err != nil {
				return domain.TriageConfig{}, err
			}
		}
		cfg.CategoryThresholds = update.CategoryThresholds
	}
	if update.SLAHours != nil {
		if *update.SLAHours <= 0 {
			return domain.TriageConfig{}, apperrors.NewValidationError("sla_hours must be positive", nil)
		}
		cfg.SLAHours = *update.SLAHours
	}
	if update.MaxRetries != nil {
		if *update.MaxRetries < 0 {
			return domain.TriageConfig{}, apperrors.NewValidationError("max_retries cannot be negative", nil)
		}
		cfg.MaxRetries = *update.MaxRetries
	}
	if update.RetryBackoffMS != nil {
		if *update.RetryBackoffMS < 0 {
			return domain.TriageConfig{}, apperrors.NewValidationError("retry_backoff_ms cannot be negative", nil)
		}
		cfg.RetryBackoffMS = *update.RetryBackoffMS
	}
	if update.TimeoutMS != nil {
		if *update.TimeoutMS <= 0 {
			return domain.TriageConfig{}, apperrors.NewValidationError("timeout_ms must be positive", nil)
		}
		cfg.TimeoutMS = *update.TimeoutMS
	}

	cfg.UpdatedBy = &actorID
	if err := s.configs.Update(ctx, &cfg); err != nil {
		return domain.TriageConfig{}, apperrors.MapError(err)
	}
	s.logger.Info("triage config updated", zap.String("actor_id", actorID))
	return cfg, nil
}

func validateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return apperrors.NewValidationError("threshold must be between 0 and 1", map[string]any{"threshold": threshold})
	}
	return nil
}
