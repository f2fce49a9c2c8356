package domain

import "time"

// ArticleStatus enumerates publication states for knowledge articles.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

// KnowledgeArticle is a knowledge-base entry. Only published articles are
// eligible for retrieval by the triage pipeline.
type KnowledgeArticle struct {
	ID              string
	Title           string
	Body            string
	Tags            []string
	Status          ArticleStatus
	AuthorID        string
	ViewCount       int
	HelpfulCount    int
	NotHelpfulCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ArticleHit pairs an article with the relevance rank the store's full-text
// search assigned to it.
type ArticleHit struct {
	Article KnowledgeArticle
	Rank    float64
}
