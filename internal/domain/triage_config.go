package domain

import "time"

// TriageConfig is the single live configuration document for the pipeline.
// It is read fresh at the start of each run and mutated only by admins.
type TriageConfig struct {
	ID                  string
	AutoCloseEnabled    bool
	ConfidenceThreshold float64
	CategoryThresholds  map[TicketCategory]float64
	SLAHours            int
	MaxRetries          int
	RetryBackoffMS      int
	TimeoutMS           int
	UpdatedAt           time.Time
	UpdatedBy           *string
}

// ThresholdFor resolves the auto-close threshold for a category, falling
// back to the global threshold when no override is configured.
func (c TriageConfig) ThresholdFor(category TicketCategory) float64 {
	if override, ok := c.CategoryThresholds[category]; ok {
		return override
	}
	return c.ConfidenceThreshold
}

// Timeout returns the per-run timeout as a duration, zero when unset.
func (c TriageConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RetryBackoff returns the base backoff between retry attempts.
func (c TriageConfig) RetryBackoff() time.Duration {
	if c.RetryBackoffMS <= 0 {
		return 0
	}
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// DefaultTriageConfig returns the configuration used until an admin edits it.
func DefaultTriageConfig() TriageConfig {
	return TriageConfig{
		AutoCloseEnabled:    true,
		ConfidenceThreshold: 0.75,
		CategoryThresholds:  map[TicketCategory]float64{},
		SLAHours:            24,
		MaxRetries:          3,
		RetryBackoffMS:      500,
		TimeoutMS:           30000,
	}
}
