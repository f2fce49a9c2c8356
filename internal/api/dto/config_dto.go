package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TriageConfigResponse is the admin view of the live configuration.
type TriageConfigResponse struct {
	AutoCloseEnabled    bool               `json:"auto_close_enabled"`
	ConfidenceThreshold float64            `json:"confidence_threshold"`
	CategoryThresholds  map[string]float64 `json:"category_thresholds"`
	SLAHours            int                `json:"sla_hours"`
	MaxRetries          int                `json:"max_retries"`
	RetryBackoffMS      int                `json:"retry_backoff_ms"`
	TimeoutMS           int                `json:"timeout_ms"`
	UpdatedAt           time.Time          `json:"updated_at"`
	UpdatedBy           *string            `json:"updated_by,omitempty"`
}

// UpdateTriageConfigRequest payload. Omitted fields keep current values.
type UpdateTriageConfigRequest struct {
	AutoCloseEnabled    *bool              `json:"auto_close_enabled"`
	ConfidenceThreshold *float64           `json:"confidence_threshold"`
	CategoryThresholds  map[string]float64 `json:"category_thresholds"`
	SLAHours            *int               `json:"sla_hours"`
	MaxRetries          *int               `json:"max_retries"`
	RetryBackoffMS      *int               `json:"retry_backoff_ms"`
	TimeoutMS           *int               `json:"timeout_ms"`
}

// NewTriageConfigResponse maps the domain config.
func NewTriageConfigResponse(cfg domain.TriageConfig) TriageConfigResponse {
	thresholds := make(map[string]float64, len(cfg.CategoryThresholds))
	for category, threshold := range cfg.CategoryThresholds {
		thresholds[string(category)] = threshold
	}
	return TriageConfigResponse{
		AutoCloseEnabled:    cfg.AutoCloseEnabled,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		CategoryThresholds:  thresholds,
		SLAHours:            cfg.SLAHours,
		MaxRetries:          cfg.MaxRetries,
		RetryBackoffMS:      cfg.RetryBackoffMS,
		TimeoutMS:           cfg.TimeoutMS,
		UpdatedAt:           cfg.UpdatedAt,
		UpdatedBy:           cfg.UpdatedBy,
	}
}

// CategoryThresholds converts the request map to domain keys.
func (r UpdateTriageConfigRequest) DomainThresholds() map[domain.TicketCategory]float64 {
	if r.CategoryThresholds == nil {
		return nil
	}
	out := make(map[domain.TicketCategory]float64, len(r.CategoryThresholds))
	for category, threshold := range r.CategoryThresholds {
		out[domain.TicketCategory(category)] = threshold
	}
	return out
}
