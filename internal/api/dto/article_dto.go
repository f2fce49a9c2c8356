package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// ArticleRequest payload for create and update.
type ArticleRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// ArticleFeedbackRequest payload.
type ArticleFeedbackRequest struct {
	Helpful bool `json:"helpful"`
}

// ArticleResponse is the API shape of a knowledge article.
type ArticleResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Body            string               `json:"body"`
	Tags            []string             `json:"tags"`
	Status          domain.ArticleStatus `json:"status"`
	ViewCount       int                  `json:"view_count"`
	HelpfulCount    int                  `json:"helpful_count"`
	NotHelpfulCount int                  `json:"not_helpful_count"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewArticleResponse maps a domain article.
func NewArticleResponse(article *domain.KnowledgeArticle) ArticleResponse {
	return ArticleResponse{
		ID:              article.ID,
		Title:           article.Title,
		Body:            article.Body,
		Tags:            article.Tags,
		Status:          article.Status,
		ViewCount:       article.ViewCount,
		HelpfulCount:    article.HelpfulCount,
		NotHelpfulCount: article.NotHelpfulCount,
		CreatedAt:       article.CreatedAt,
		UpdatedAt:       article.UpdatedAt,
	}
}

// NewArticleResponses maps a slice of articles.
func NewArticleResponses(articles []domain.KnowledgeArticle) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(articles))
	for i := range articles {
		out = append(out, NewArticleResponse(&articles[i]))
	}
	return out
}
