package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util/errorutil"
)

// ArticlesHandler manages knowledge-base endpoints.
type ArticlesHandler struct {
	service *service.ArticleService
}

// NewArticlesHandler constructs handler.
func NewArticlesHandler(articleService *service.ArticleService) *ArticlesHandler {
	return &ArticlesHandler{service: articleService}
}

// CreateArticle POST /articles.
func (h *ArticlesHandler) CreateArticle(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	article, err := h.service.CreateArticle(c.UserContext(), principal.User.ID, service.ArticleInput{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}

// UpdateArticle PUT /articles/:id.
func (h *ArticlesHandler) UpdateArticle(c *fiber.Ctx) error {
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	article, err := h.service.UpdateArticle(c.UserContext(), c.Params("id"), service.ArticleInput{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}

// PublishArticle POST /articles/:id/publish.
func (h *ArticlesHandler) PublishArticle(c *fiber.Ctx) error {
	article, err := h.service.PublishArticle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}

// UnpublishArticle POST /articles/:id/unpublish.
func (h *ArticlesHandler) UnpublishArticle(c *fiber.Ctx) error {
	article, err := h.service.UnpublishArticle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}

// GetArticle GET /articles/:id.
func (h *ArticlesHandler) GetArticle(c *fiber.Ctx) error {
	article, err := h.service.GetArticle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewArticleResponse(article)})
}

// ListArticles GET /articles.
func (h *ArticlesHandler) ListArticles(c *fiber.Ctx) error {
	filter := repository.ArticleFilter{Limit: defaultPageSize}
	if raw := c.Query("status"); raw != "" {
		status := domain.ArticleStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("tag"); raw != "" {
		filter.Tag = &raw
	}
	if raw := c.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 && size <= 100 {
			filter.Limit = size
		}
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 1 {
			filter.Offset = (page - 1) * filter.Limit
		}
	}

	articles, err := h.service.ListArticles(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewArticleResponses(articles)})
}

// RecordFeedback POST /articles/:id/feedback.
func (h *ArticlesHandler) RecordFeedback(c *fiber.Ctx) error {
	var req dto.ArticleFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.RecordFeedback(c.UserContext(), c.Params("id"), req.Helpful); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
