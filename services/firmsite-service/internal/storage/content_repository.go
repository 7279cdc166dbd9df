package storage

import (
	"context"
	"fmt"

	"github.com/Kristaal/Law-firm/libs/db"
	"github.com/Kristaal/Law-firm/services/firmsite-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// ContentRepository stores blog posts, their likes and comments.
type ContentRepository struct {
	pool *db.Pool
}

func NewContentRepository(pool *db.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

const postSelect = `
	SELECT p.id, p.title, p.slug, p.author_id, u.username, p.content, p.excerpt, p.featured_image,
		p.status, p.created_on, p.updated_on,
		(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id)
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

// ListPublished returns one page (1-based) of published posts, newest first, and the total
// number of published posts.
func (r *ContentRepository) ListPublished(ctx context.Context, page, perPage int) ([]model.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 6
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM posts WHERE status = $1`, model.PostPublished).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset, ok := PageOffset(page, perPage, total)
	if !ok {
		return nil, total, nil
	}
	rows, err := r.pool.Query(ctx, postSelect+`
		WHERE p.status = $1
		ORDER BY p.created_on DESC
		LIMIT $2 OFFSET $3
	`, model.PostPublished, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return posts, total, nil
}

// PageOffset returns the row offset of a 1-based page, or false when the page lies past the
// last row. Huge page numbers never overflow.
func PageOffset(page, perPage, total int) (int, bool) {
	if page < 1 || perPage < 1 || total < 0 {
		return 0, false
	}
	if page-1 > total/perPage {
		return 0, false
	}
	offset := (page - 1) * perPage
	if page > 1 && offset >= total {
		return 0, false
	}
	return offset, true
}

func (r *ContentRepository) GetPublished(ctx context.Context, slug string) (model.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, postSelect+`WHERE p.slug = $1 AND p.status = $2`, slug, model.PostPublished))
	if err != nil {
		return model.Post{}, noRecord(err, fmt.Sprintf("post %q", slug))
	}
	return p, nil
}

func (r *ContentRepository) CreatePost(ctx context.Context, p model.Post) (model.Post, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (title, slug, author_id, content, excerpt, featured_image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_on, updated_on
	`, p.Title, p.Slug, p.AuthorID, p.Content, p.Excerpt, p.FeaturedImage, p.Status).Scan(&p.ID, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return model.Post{}, err
	}
	return p, nil
}

// ApprovedComments returns the approved comments of a post, oldest first.
func (r *ContentRepository) ApprovedComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	return r.comments(ctx, `
		SELECT id, post_id, name, email, body, created_on, approved
		FROM comments
		WHERE post_id = $1 AND approved
		ORDER BY created_on, id
	`, postID)
}

// PendingComments returns every comment awaiting moderation, oldest first.
func (r *ContentRepository) PendingComments(ctx context.Context) ([]model.Comment, error) {
	return r.comments(ctx, `
		SELECT id, post_id, name, email, body, created_on, approved
		FROM comments
		WHERE NOT approved
		ORDER BY created_on, id
	`)
}

// AddComment stores a comment. New comments are never approved.
func (r *ContentRepository) AddComment(ctx context.Context, c model.Comment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (post_id, name, email, body, approved)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id
	`, c.PostID, c.Name, c.Email, c.Body).Scan(&id)
	return id, err
}

func (r *ContentRepository) ApproveComment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE comments SET approved = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %d: %w", id, model.ErrNoRecord)
	}
	return nil
}

func (r *ContentRepository) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)
	`, postID, userID).Scan(&liked)
	return liked, err
}

// ToggleLike adds the like when absent and removes it otherwise. It reports whether the post
// is liked afterwards.
func (r *ContentRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, error) {
	var liked bool
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, postID, userID); err != nil {
			return err
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *ContentRepository) comments(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Name, &c.Email, &c.Body, &c.CreatedOn, &c.Approved); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.AuthorID, &p.AuthorName, &p.Content, &p.Excerpt, &p.FeaturedImage,
		&p.Status, &p.CreatedOn, &p.UpdatedOn, &p.Likes)
	return p, err
}
