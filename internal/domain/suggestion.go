package domain

import "time"

// TriageSuggestion is the persisted outcome of one successful triage run.
// The orchestrator exclusively creates these records.
type TriageSuggestion struct {
	ID                string
	TicketID          string
	TraceID           string
	PredictedCategory TicketCategory
	ArticleIDs        []string
	DraftReply        string
	Confidence        float64
	AutoClosed        bool

	// Acceptance state. Accepted stays nil until a human decides.
	Accepted     *bool
	DecidedByID  *string
	DecidedAt    *time.Time
	RejectReason *string

	// Model metadata, kept so a rule-based backend can be swapped for a
	// real model without changing the record shape.
	ModelProvider string
	ModelName     string
	PromptVersion string
	LatencyMS     int64

	CreatedAt time.Time
}

// ClampConfidence forces a confidence score into [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
