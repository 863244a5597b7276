// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"aslipolitik/internal/category"
	"aslipolitik/internal/listing"
	"aslipolitik/internal/models"
)

// ErrSlugTaken is returned by Insert and Update when another post already
// uses the slug.
var ErrSlugTaken = errors.New("slug already in use")

const postColumns = `id, title, slug, excerpt, content, category, author_name,
		featured_image, published_at, created_at, updated_at`

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// Query returns one page of posts matching f together with the total number
// of matches. Both come from one statement so they describe the same
// snapshot; the total is returned even when the page is past the end.
func (s *PostStore) Query(ctx context.Context, f listing.Filter, offset, limit int) (listing.Page, error) {
	where, args := filterClause(f)
	args = append(args, offset, limit)
	n := len(args)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		WITH matched AS (
			SELECT %s FROM posts WHERE %s
		), total AS (
			SELECT COUNT(*) AS n FROM matched
		)
		SELECT total.n, page.id, page.title, page.slug, page.excerpt, page.content,
		       page.category, page.author_name, page.featured_image,
		       page.published_at, page.created_at, page.updated_at
		FROM total
		LEFT JOIN LATERAL (
			SELECT * FROM matched
			ORDER BY published_at DESC, id DESC
			OFFSET $%d LIMIT $%d
		) page ON TRUE
		ORDER BY page.published_at DESC, page.id DESC
	`, postColumns, where, n-1, n), args...)
	if err != nil {
		return listing.Page{}, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	page := listing.Page{Items: []models.Post{}}
	for rows.Next() {
		var (
			total                             int
			id                                uuid.NullUUID
			title, slug, excerpt, content     sql.NullString
			code, author                      sql.NullString
			image                             *string
			publishedAt, createdAt, updatedAt sql.NullTime
		)
		if err := rows.Scan(&total, &id, &title, &slug, &excerpt, &content,
			&code, &author, &image, &publishedAt, &createdAt, &updatedAt); err != nil {
			return listing.Page{}, fmt.Errorf("scan post page: %w", err)
		}
		page.Total = total
		if !id.Valid {
			continue
		}
		p := models.Post{
			ID:            id.UUID,
			Title:         title.String,
			Slug:          slug.String,
			Excerpt:       excerpt.String,
			Content:       content.String,
			Category:      category.Code(code.String),
			AuthorName:    author.String,
			FeaturedImage: image,
			PublishedAt:   publishedAt.Time,
			CreatedAt:     createdAt.Time,
			UpdatedAt:     updatedAt.Time,
		}
		if err := checkCategory(&p); err != nil {
			return listing.Page{}, err
		}
		page.Items = append(page.Items, p)
	}
	if err := rows.Err(); err != nil {
		return listing.Page{}, fmt.Errorf("iterate post page: %w", err)
	}
	return page, nil
}

// filterClause renders the WHERE condition of a listing filter.
func filterClause(f listing.Filter) (string, []any) {
	switch f.Kind {
	case listing.FilterCategory:
		return "category = $1", []any{string(f.Category)}
	case listing.FilterText:
		pattern := "%" + escapeLike(strings.TrimSpace(f.Text)) + "%"
		return "(title ILIKE $1 OR excerpt ILIKE $1 OR content ILIKE $1)", []any{pattern}
	default:
		return "TRUE", nil
	}
}

// escapeLike neutralises LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindBySlug retrieves a post by its slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+` FROM posts WHERE slug = $1
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+` FROM posts WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// Insert creates a post. A nil PublishedAt means now.
func (s *PostStore) Insert(ctx context.Context, f models.PostFields) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, excerpt, content, category, author_name,
		                   featured_image, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		RETURNING `+postColumns,
		f.Title, f.Slug, f.Excerpt, f.Content, string(f.Category), f.AuthorName,
		f.FeaturedImage, nullTime(f.PublishedAt),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// Update replaces the editable fields of a post. A nil PublishedAt keeps
// the stored value. Returns nil if the post does not exist.
func (s *PostStore) Update(ctx context.Context, id uuid.UUID, f models.PostFields) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, excerpt = $3, content = $4, category = $5,
			author_name = $6, featured_image = $7,
			published_at = COALESCE($8, published_at),
			updated_at = NOW()
		WHERE id = $9
		RETURNING `+postColumns,
		f.Title, f.Slug, f.Excerpt, f.Content, string(f.Category), f.AuthorName,
		f.FeaturedImage, nullTime(f.PublishedAt), id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// Delete removes a post and reports whether it existed.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post rows: %w", err)
	}
	return n > 0, nil
}

// SlugExists reports whether a post other than exclude uses slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)
	`, slug, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

func scanPost(row *sql.Row) (*models.Post, error) {
	p := &models.Post{}
	var code string
	if err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &code, &p.AuthorName,
		&p.FeaturedImage, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Category = category.Code(code)
	if err := checkCategory(p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkCategory rejects rows whose category is outside the taxonomy.
func checkCategory(p *models.Post) error {
	if !category.Valid(p.Category) {
		return fmt.Errorf("post %s has unknown category %q", p.ID, p.Category)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
