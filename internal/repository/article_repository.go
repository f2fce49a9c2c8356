package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// ArticleFilter captures listing parameters for knowledge articles.
type ArticleFilter struct {
	Status *domain.ArticleStatus
	Tag    *string
	Limit  int
	Offset int
}

// ArticleRepository encapsulates knowledge-base persistence. The two
// search methods implement the retriever's phase-one and phase-two
// contracts and only ever return published articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.KnowledgeArticle) error
	Update(ctx context.Context, article *domain.KnowledgeArticle) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeArticle, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.KnowledgeArticle, error)
	List(ctx context.Context, filter ArticleFilter) ([]domain.KnowledgeArticle, error)
	SearchFullText(ctx context.Context, query string, category domain.TicketCategory, limit int) ([]domain.ArticleHit, error)
	SearchByTerms(ctx context.Context, terms []string, limit int) ([]domain.KnowledgeArticle, error)
	IncrementViews(ctx context.Context, id string) error
	RecordFeedback(ctx context.Context, id string, helpful bool) error
}

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository instantiates repository.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

const articleColumns = `id, title, body, tags, status, author_id,
               view_count, helpful_count, not_helpful_count, created_at, updated_at`

func (r *articleRepository) Create(ctx context.Context, article *domain.KnowledgeArticle) error {
	const query = `
        INSERT INTO knowledge_articles (title, body, tags, status, author_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		article.Title,
		article.Body,
		article.Tags,
		article.Status,
		article.AuthorID,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
}

func (r *articleRepository) Update(ctx context.Context, article *domain.KnowledgeArticle) error {
	const query = `
        UPDATE knowledge_articles SET title=$1, body=$2, tags=$3, status=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		article.Title,
		article.Body,
		article.Tags,
		article.Status,
		article.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM knowledge_articles WHERE id=$1`
	var article domain.KnowledgeArticle
	if err := r.pool.QueryRow(ctx, query, id).Scan(articleFields(&article)...); err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.KnowledgeArticle, error) {
	if len(ids) == 0 {
		return []domain.KnowledgeArticle{}, nil
	}
	query := `SELECT ` + articleColumns + ` FROM knowledge_articles
        WHERE id = ANY($1) AND status='published'`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter) ([]domain.KnowledgeArticle, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Tag != nil {
		args = append(args, *filter.Tag)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM knowledge_articles WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		articleColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// SearchFullText is retrieval phase one: relevance-ranked match against
// title and body, published only, optionally narrowed to a category tag.
func (r *articleRepository) SearchFullText(ctx context.Context, query string, category domain.TicketCategory, limit int) ([]domain.ArticleHit, error) {
	clauses := []string{
		"status='published'",
		"to_tsvector('english', title || ' ' || body) @@ plainto_tsquery('english', $1)",
	}
	args := []any{query}
	if category != "" && category != domain.CategoryOther {
		args = append(args, string(category))
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if limit <= 0 {
		limit = 5
	}

	sql := fmt.Sprintf(`
        SELECT %s, ts_rank(to_tsvector('english', title || ' ' || body), plainto_tsquery('english', $1)) AS rank
        FROM knowledge_articles
        WHERE %s
        ORDER BY rank DESC, id ASC
        LIMIT %d`, articleColumns, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []domain.ArticleHit
	for rows.Next() {
		var hit domain.ArticleHit
		fields := articleFields(&hit.Article)
		fields = append(fields, &hit.Rank)
		if err := rows.Scan(fields...); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// SearchByTerms is retrieval phase two: any-term substring match against
// title, body or tags.
func (r *articleRepository) SearchByTerms(ctx context.Context, terms []string, limit int) ([]domain.KnowledgeArticle, error) {
	if len(terms) == 0 {
		return []domain.KnowledgeArticle{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	clauses := make([]string, 0, len(terms))
	args := []any{}
	for _, term := range terms {
		args = append(args, "%"+strings.ToLower(term)+"%")
		idx := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE $%d OR LOWER(body) LIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE LOWER(t) LIKE $%d))",
			idx, idx, idx))
	}

	query := fmt.Sprintf(`
        SELECT %s FROM knowledge_articles
        WHERE status='published' AND (%s)
        ORDER BY id ASC
        LIMIT %d`, articleColumns, strings.Join(clauses, " OR "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *articleRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE knowledge_articles SET view_count = view_count + 1 WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *articleRepository) RecordFeedback(ctx context.Context, id string, helpful bool) error {
	column := "not_helpful_count"
	if helpful {
		column = "helpful_count"
	}
	query := fmt.Sprintf(`UPDATE knowledge_articles SET %s = %s + 1 WHERE id=$1`, column, column)
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func articleFields(article *domain.KnowledgeArticle) []any {
	return []any{
		&article.ID,
		&article.Title,
		&article.Body,
		&article.Tags,
		&article.Status,
		&article.AuthorID,
		&article.ViewCount,
		&article.HelpfulCount,
		&article.NotHelpfulCount,
		&article.CreatedAt,
		&article.UpdatedAt,
	}
}

func scanArticles(rows pgx.Rows) ([]domain.KnowledgeArticle, error) {
	var result []domain.KnowledgeArticle
	for rows.Next() {
		var article domain.KnowledgeArticle
		if err := rows.Scan(articleFields(&article)...); err != nil {
			return nil, err
		}
		result = append(result, article)
	}
	return result, rows.Err()
}
