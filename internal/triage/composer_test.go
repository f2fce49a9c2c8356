package triage

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

func TestComposeWithArticles(t *testing.T) {
	c := NewTemplateComposer()
	articles := []domain.KnowledgeArticle{
		{ID: "a1", Title: "How refunds work", Body: "internal detail that must never leak"},
		{ID: "a2", Title: "Invoice FAQ"},
	}

	draft, err := c.Compose(domain.CategoryBilling, articles)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(draft.Reply, "billing concern") {
		t.Fatalf("missing billing opening:\n%s", draft.Reply)
	}
	if !strings.Contains(draft.Reply, "  1. How refunds work") || !strings.Contains(draft.Reply, "  2. Invoice FAQ") {
		t.Fatalf("missing numbered article titles:\n%s", draft.Reply)
	}
	if strings.Contains(draft.Reply, "internal detail") {
		t.Fatalf("article body leaked into draft:\n%s", draft.Reply)
	}
	if !strings.Contains(draft.Reply, "an agent will follow up") {
		t.Fatalf("missing closing invite:\n%s", draft.Reply)
	}
	if !strings.HasSuffix(draft.Reply, signatureLine) {
		t.Fatalf("draft must end with signature:\n%s", draft.Reply)
	}
	if !reflect.DeepEqual(draft.Citations, []string{"a1", "a2"}) {
		t.Fatalf("citations = %v, want [a1 a2]", draft.Citations)
	}
}

func TestComposeWithoutArticles(t *testing.T) {
	c := NewTemplateComposer()
	draft, err := c.Compose(domain.CategoryTechnical, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(draft.Reply, "These articles should help") {
		t.Fatalf("reference list present with no articles:\n%s", draft.Reply)
	}
	if strings.Contains(draft.Reply, "an agent will follow up") {
		t.Fatalf("closing invite present with no articles:\n%s", draft.Reply)
	}
	if len(draft.Citations) != 0 {
		t.Fatalf("citations = %v, want empty", draft.Citations)
	}
	if !strings.HasSuffix(draft.Reply, signatureLine) {
		t.Fatalf("draft must end with signature:\n%s", draft.Reply)
	}
}

func TestComposeUnknownCategoryUsesFallbackOpening(t *testing.T) {
	c := NewTemplateComposer()
	draft, err := c.Compose(domain.TicketCategory("mystery"), nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(draft.Reply, openings[domain.CategoryOther]) {
		t.Fatalf("expected catch-all opening:\n%s", draft.Reply)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewTemplateComposer()
	articles := []domain.KnowledgeArticle{{ID: "a1", Title: "Reset your password"}}

	first, err := c.Compose(domain.CategoryAccount, articles)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	second, err := c.Compose(domain.CategoryAccount, articles)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if first.Reply != second.Reply {
		t.Fatal("same inputs produced different drafts")
	}
}
