package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

const maxArticleTags = 16

// ArticleService manages the knowledge base the retriever searches.
type ArticleService struct {
	articles repository.ArticleRepository
	logger   *zap.Logger
}

// ArticleInput carries author-supplied article fields.
type ArticleInput struct {
	Title string
	Body  string
	Tags  []string
}

// NewArticleService constructs the article service.
func NewArticleService(articles repository.ArticleRepository, logger *zap.Logger) *ArticleService {
	return &ArticleService{articles: articles, logger: logger}
}

// CreateArticle persists a new draft article. Drafts are invisible to the
// retriever until published.
func (s *ArticleService) CreateArticle(ctx context.Context, authorID string, input ArticleInput) (*domain.KnowledgeArticle, error) {
	if err := validateArticleInput(input); err != nil {
		return nil, err
	}
	article := &domain.KnowledgeArticle{
		Title:    strings.TrimSpace(input.Title),
		Body:     strings.TrimSpace(input.Body),
		Tags:     normalizeTags(input.Tags),
		Status:   domain.ArticleStatusDraft,
		AuthorID: authorID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// UpdateArticle replaces title, body and tags.
func (s *ArticleService) UpdateArticle(ctx context.Context, id string, input ArticleInput) (*domain.KnowledgeArticle, error) {
	if err := validateArticleInput(input); err != nil {
		return nil, err
	}
	article, err := s.getArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Title = strings.TrimSpace(input.Title)
	article.Body = strings.TrimSpace(input.Body)
	article.Tags = normalizeTags(input.Tags)
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// PublishArticle makes a draft visible to the retriever.
func (s *ArticleService) PublishArticle(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	article, err := s.getArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Status == domain.ArticleStatusPublished {
		return article, nil
	}
	article.Status = domain.ArticleStatusPublished
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// UnpublishArticle returns a published article to draft, hiding it from
// future retrieval. Existing suggestion citations keep pointing at it.
func (s *ArticleService) UnpublishArticle(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	article, err := s.getArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Status == domain.ArticleStatusDraft {
		return article, nil
	}
	article.Status = domain.ArticleStatusDraft
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// GetArticle returns the article and bumps its view counter. Counter
// failures are logged, not surfaced.
func (s *ArticleService) GetArticle(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	article, err := s.getArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.articles.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to increment article views", zap.String("article_id", id), zap.Error(err))
	}
	return article, nil
}

// ListArticles applies the filter and returns matching articles.
func (s *ArticleService) ListArticles(ctx context.Context, filter repository.ArticleFilter) ([]domain.KnowledgeArticle, error) {
	articles, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return articles, nil
}

// RecordFeedback bumps the helpful or not-helpful counter. The counters
// feed the retriever's re-ranking.
func (s *ArticleService) RecordFeedback(ctx context.Context, id string, helpful bool) error {
	if _, err := s.getArticle(ctx, id); err != nil {
		return err
	}
	if err := s.articles.RecordFeedback(ctx, id, helpful); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ArticleService) getArticle(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", map[string]any{"article_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

func validateArticleInput(input ArticleInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperrors.NewValidationError("title is required", nil)
	}
	if strings.TrimSpace(input.Body) == "" {
		return apperrors.NewValidationError("body is required", nil)
	}
	if len(input.Tags) > maxArticleTags {
		return apperrors.NewValidationError("too many tags", map[string]any{"max": maxArticleTags})
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
