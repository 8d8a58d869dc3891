package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devnet/api/internal/domain"
	"github.com/devnet/api/internal/repository"
)

// CreatePost inserts a post with empty like and comment sequences.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	const query = `INSERT INTO posts (id, user_id, body, likes, comments, created_at)
		VALUES ($1, $2, $3, '[]'::jsonb, '[]'::jsonb, $4)`
	if _, err := r.pool.Exec(ctx, query, post.ID, post.UserID, post.Body, post.CreatedAt); err != nil {
		return translateErr(err)
	}
	return nil
}

// GetPostByID loads a post with the author's name resolved.
func (r *Repository) GetPostByID(ctx context.Context, postID string) (*domain.Post, error) {
	const query = `SELECT p.id, p.user_id, u.name, p.body, p.likes, p.comments, p.created_at
		FROM posts p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`
	row := r.pool.QueryRow(ctx, query, postID)
	post, err := scanPost(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return post, nil
}

// ListPosts returns all posts, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	const query = `SELECT p.id, p.user_id, u.name, p.body, p.likes, p.comments, p.created_at
		FROM posts p
		INNER JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC`
	return r.listPosts(ctx, query)
}

// ListPostsByAuthor returns a user's posts, newest first.
func (r *Repository) ListPostsByAuthor(ctx context.Context, userID string) ([]domain.Post, error) {
	const query = `SELECT p.id, p.user_id, u.name, p.body, p.likes, p.comments, p.created_at
		FROM posts p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`
	return r.listPosts(ctx, query, userID)
}

// UpdatePostBody overwrites a post's body.
func (r *Repository) UpdatePostBody(ctx context.Context, postID, body string) error {
	const query = `UPDATE posts SET body = $2 WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, postID, body)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeletePost removes a post; embedded comments go with the row.
func (r *Repository) DeletePost(ctx context.Context, postID string) error {
	const query = `DELETE FROM posts WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, postID)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// InsertLike prepends userID to the post's like sequence.
func (r *Repository) InsertLike(ctx context.Context, postID, userID string) error {
	const query = `UPDATE posts
		SET likes = jsonb_build_array(to_jsonb($2::text)) || likes
		WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, postID, userID)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveLike drops userID from the like sequence; absent membership is a no-op.
func (r *Repository) RemoveLike(ctx context.Context, postID, userID string) error {
	const query = `UPDATE posts SET likes = likes - $2::text WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, postID, userID)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// InsertComment prepends a comment to the post's comment sequence.
func (r *Repository) InsertComment(ctx context.Context, postID string, comment domain.Comment) error {
	encoded, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	const query = `UPDATE posts
		SET comments = jsonb_build_array($2::jsonb) || comments
		WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, postID, encoded)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveComment drops comments matching both the comment id and the
// author. A requester who is not the author matches nothing, so the call
// succeeds without changing the sequence.
func (r *Repository) RemoveComment(ctx context.Context, postID, commentID, authorID string) error {
	const query = `UPDATE posts
		SET comments = (
			SELECT COALESCE(jsonb_agg(entry ORDER BY ord), '[]'::jsonb)
			FROM jsonb_array_elements(comments) WITH ORDINALITY AS t(entry, ord)
			WHERE NOT (entry->>'id' = $2 AND entry->>'user_id' = $3)
		)
		WHERE id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, postID, commentID, authorID)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) listPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		p        domain.Post
		likes    []byte
		comments []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.UserName, &p.Body, &likes, &comments, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Likes = make([]string, 0)
	if len(likes) > 0 {
		if err := json.Unmarshal(likes, &p.Likes); err != nil {
			return nil, fmt.Errorf("unmarshal likes: %w", err)
		}
	}
	p.Comments = make([]domain.Comment, 0)
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &p.Comments); err != nil {
			return nil, fmt.Errorf("unmarshal comments: %w", err)
		}
	}
	return &p, nil
}
