package triage

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// DefaultRetrievalLimit caps how many articles a run retrieves and cites.
const DefaultRetrievalLimit = 5

// maxQueryTerms caps keyword extraction for the secondary search phase.
const maxQueryTerms = 10

// ArticleStore is the slice of the article collaborator the retriever
// consumes. Both methods must restrict results to published articles.
type ArticleStore interface {
	SearchFullText(ctx context.Context, query string, category domain.TicketCategory, limit int) ([]domain.ArticleHit, error)
	SearchByTerms(ctx context.Context, terms []string, limit int) ([]domain.KnowledgeArticle, error)
}

// Retriever finds and ranks knowledge articles for a ticket.
type Retriever interface {
	Retrieve(ctx context.Context, query string, category domain.TicketCategory, limit int) ([]domain.KnowledgeArticle, error)
}

// StoreRetriever implements the two-phase retrieval strategy: ranked
// full-text first, then keyword matching to fill up to the limit, with a
// composite re-rank over the merged candidate set.
type StoreRetriever struct {
	store ArticleStore
}

// NewStoreRetriever constructs the retriever.
func NewStoreRetriever(store ArticleStore) *StoreRetriever {
	return &StoreRetriever{store: store}
}

type candidate struct {
	article     domain.KnowledgeArticle
	phase1Score float64
}

// Retrieve runs both phases and returns at most limit articles ordered by
// composite relevance. Given the same corpus and query the result is
// stable: ties break on article id.
func (r *StoreRetriever) Retrieve(ctx context.Context, query string, category domain.TicketCategory, limit int) ([]domain.KnowledgeArticle, error) {
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	hits, err := r.store.SearchFullText(ctx, query, category, limit)
	if err != nil {
		return nil, WrapError(ErrRetrieval, err)
	}

	candidates := make([]candidate, 0, limit*2)
	seen := make(map[string]struct{}, limit*2)
	for _, hit := range hits {
		candidates = append(candidates, candidate{article: hit.Article, phase1Score: hit.Rank})
		seen[hit.Article.ID] = struct{}{}
	}

	terms := ExtractTerms(query)
	if len(candidates) < limit && len(terms) > 0 {
		extra, err := r.store.SearchByTerms(ctx, terms, limit)
		if err != nil {
			return nil, WrapError(ErrRetrieval, err)
		}
		for _, article := range extra {
			if _, dup := seen[article.ID]; dup {
				continue
			}
			seen[article.ID] = struct{}{}
			candidates = append(candidates, candidate{article: article})
		}
	}

	type scored struct {
		article domain.KnowledgeArticle
		score   float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		ranked = append(ranked, scored{
			article: cand.article,
			score:   compositeScore(cand.article, cand.phase1Score, terms),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].article.ID < ranked[j].article.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result := make([]domain.KnowledgeArticle, 0, len(ranked))
	for _, entry := range ranked {
		result = append(result, entry.article)
	}
	return result, nil
}

// compositeScore combines the store rank, per-field term matches and the
// article's usefulness counters.
func compositeScore(article domain.KnowledgeArticle, phase1 float64, terms []string) float64 {
	title := strings.ToLower(article.Title)
	body := strings.ToLower(article.Body)
	tags := make([]string, len(article.Tags))
	for i, tag := range article.Tags {
		tags[i] = strings.ToLower(tag)
	}

	var titleMatches, bodyMatches, tagMatches int
	for _, term := range terms {
		if strings.Contains(title, term) {
			titleMatches++
		}
		if strings.Contains(body, term) {
			bodyMatches++
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				tagMatches++
				break
			}
		}
	}

	return phase1 +
		3*float64(titleMatches) +
		1*float64(bodyMatches) +
		2*float64(tagMatches) +
		0.1*float64(article.HelpfulCount) -
		0.05*float64(article.NotHelpfulCount)
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "can": {}, "do": {}, "for": {}, "from": {},
	"get": {}, "has": {}, "have": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "my": {}, "not": {}, "of": {}, "on": {}, "or": {},
	"our": {}, "please": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "we": {}, "what": {}, "when": {}, "why": {}, "will": {},
	"with": {}, "you": {}, "your": {},
}

// ExtractTerms lowercases the query, strips punctuation, drops stop words
// and single characters, deduplicates, and caps the result at ten terms in
// first-seen order.
func ExtractTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	terms := make([]string, 0, maxQueryTerms)
	seen := make(map[string]struct{}, maxQueryTerms)
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if _, stop := stopWords[field]; stop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		terms = append(terms, field)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return terms
}
