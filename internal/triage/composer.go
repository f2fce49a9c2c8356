package triage

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// PromptVersion tags drafts so reworded templates are distinguishable in
// suggestion records.
const PromptVersion = "v1"

// Draft is the composed reply plus the ids of the articles it references,
// in retrieval order.
type Draft struct {
	Reply     string
	Citations []string
}

// Composer assembles a draft reply for a classified ticket.
type Composer interface {
	Compose(category domain.TicketCategory, articles []domain.KnowledgeArticle) (Draft, error)
}

// TemplateComposer builds drafts from fixed per-category templates. It is a
// pure function of its inputs: the same category and articles always
// produce the same draft.
type TemplateComposer struct{}

// NewTemplateComposer constructs the composer.
func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

const signatureLine = "— Support Team (automated assistant)"

var openings = map[domain.TicketCategory]string{
	domain.CategoryBilling:   "Thanks for reaching out about your billing concern. We've reviewed your request and gathered the most relevant material below.",
	domain.CategoryTechnical: "Thanks for reporting this technical issue. We've looked into it and collected guidance that addresses the most common causes.",
	domain.CategoryAccount:   "Thanks for contacting us about your account. The resources below cover the steps that resolve most account issues.",
	domain.CategoryShipping:  "Thanks for getting in touch about your shipment. Here is what we found regarding delivery questions like yours.",
	domain.CategoryOther:     "Thanks for contacting support. We've reviewed your request and gathered material that may help.",
}

// Compose renders the opening template for the category, a numbered
// reference list of article titles (titles only, never body content), a
// closing invite when references exist, and the fixed signature.
func (c *TemplateComposer) Compose(category domain.TicketCategory, articles []domain.KnowledgeArticle) (Draft, error) {
	opening, ok := openings[category]
	if !ok {
		opening = openings[domain.CategoryOther]
	}

	var b strings.Builder
	b.WriteString(opening)
	b.WriteString("\n")

	citations := make([]string, 0, len(articles))
	if len(articles) > 0 {
		b.WriteString("\nThese articles should help:\n")
		for i, article := range articles {
			if i == DefaultRetrievalLimit {
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, article.Title)
			citations = append(citations, article.ID)
		}
		b.WriteString("\nIf these don't resolve your issue, reply to this ticket and an agent will follow up.\n")
	}

	b.WriteString("\n")
	b.WriteString(signatureLine)

	return Draft{Reply: b.String(), Citations: citations}, nil
}
