package triage

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// Classification is the classifier's verdict for one ticket.
type Classification struct {
	Category   domain.TicketCategory
	Confidence float64
}

// Classifier scores ticket text and predicts a category. The keyword
// implementation below is deliberately deterministic; a model-backed
// implementation can be substituted without touching the orchestrator.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
	Provider() string
	Model() string
}

const (
	confidenceFloor   = 0.30
	confidenceCeiling = 0.95
	confidenceEpsilon = 1e-9

	// otherBaseScore lets the catch-all category win when no keyword
	// matches anything.
	otherBaseScore = 1.0
)

// WeightedKeyword pairs a keyword with its score contribution per occurrence.
type WeightedKeyword struct {
	Keyword string
	Weight  float64
}

// KeywordClassifier scores lowercased ticket text against a static
// category keyword table.
type KeywordClassifier struct {
	keywords map[domain.TicketCategory][]WeightedKeyword
}

// NewKeywordClassifier builds a classifier with the default keyword table.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{keywords: defaultKeywords()}
}

// NewKeywordClassifierWithTable builds a classifier over a custom table.
// Categories absent from the table simply never score.
func NewKeywordClassifierWithTable(table map[domain.TicketCategory][]WeightedKeyword) *KeywordClassifier {
	return &KeywordClassifier{keywords: table}
}

// Provider names the classification backend.
func (c *KeywordClassifier) Provider() string { return "rules" }

// Model names the concrete scoring strategy.
func (c *KeywordClassifier) Model() string { return "keyword-weighted-v1" }

// Classify scores text against every category and derives confidence from
// the normalized gap between the top two scores. Empty input still returns
// the catch-all category rather than failing.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	lowered := strings.ToLower(text)

	var top, second float64
	best := domain.CategoryOther
	for _, category := range domain.Categories {
		score := c.score(category, lowered)
		// strict > keeps the first-declared category on ties
		if score > top {
			second = top
			top = score
			best = category
		} else if score > second {
			second = score
		}
	}

	confidence := clamp(confidenceFloor, confidenceCeiling, (top-second)/(top+confidenceEpsilon))
	return Classification{Category: best, Confidence: confidence}, nil
}

func (c *KeywordClassifier) score(category domain.TicketCategory, lowered string) float64 {
	score := 0.0
	if category == domain.CategoryOther {
		score = otherBaseScore
	}
	for _, kw := range c.keywords[category] {
		if occurrences := strings.Count(lowered, kw.Keyword); occurrences > 0 {
			score += float64(occurrences) * kw.Weight
		}
	}
	return score
}

func clamp(low, high, value float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func defaultKeywords() map[domain.TicketCategory][]WeightedKeyword {
	return map[domain.TicketCategory][]WeightedKeyword{
		domain.CategoryBilling: {
			{Keyword: "refund", Weight: 3},
			{Keyword: "double charge", Weight: 3},
			{Keyword: "charge", Weight: 2},
			{Keyword: "invoice", Weight: 2},
			{Keyword: "billing", Weight: 2},
			{Keyword: "payment", Weight: 2},
			{Keyword: "subscription", Weight: 1.5},
			{Keyword: "price", Weight: 1},
			{Keyword: "receipt", Weight: 1},
		},
		domain.CategoryTechnical: {
			{Keyword: "error", Weight: 2},
			{Keyword: "crash", Weight: 3},
			{Keyword: "bug", Weight: 2.5},
			{Keyword: "not working", Weight: 2},
			{Keyword: "broken", Weight: 2},
			{Keyword: "timeout", Weight: 1.5},
			{Keyword: "exception", Weight: 1.5},
			{Keyword: "slow", Weight: 1},
			{Keyword: "500", Weight: 1},
		},
		domain.CategoryAccount: {
			{Keyword: "password", Weight: 3},
			{Keyword: "login", Weight: 2.5},
			{Keyword: "log in", Weight: 2.5},
			{Keyword: "account", Weight: 2},
			{Keyword: "locked", Weight: 2},
			{Keyword: "email change", Weight: 1.5},
			{Keyword: "two-factor", Weight: 1.5},
			{Keyword: "profile", Weight: 1},
		},
		domain.CategoryShipping: {
			{Keyword: "shipping", Weight: 3},
			{Keyword: "delivery", Weight: 2.5},
			{Keyword: "tracking", Weight: 2},
			{Keyword: "package", Weight: 2},
			{Keyword: "shipment", Weight: 2},
			{Keyword: "delayed", Weight: 1.5},
			{Keyword: "courier", Weight: 1},
		},
		// CategoryOther relies on its base score only.
	}
}
