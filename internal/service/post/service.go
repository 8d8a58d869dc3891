package post

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devnet/api/internal/domain"
	"github.com/devnet/api/internal/repository"
)

var (
	// ErrEmptyBody rejects posts and comments without content.
	ErrEmptyBody = errors.New("body cannot be empty")
	// ErrNotAuthorized rejects mutations by anyone but the owner.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrAlreadyLiked rejects a second like from the same user.
	ErrAlreadyLiked = errors.New("post already liked")
)

// Service manages posts and their embedded like and comment sequences.
type Service struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(posts repository.PostRepository, logger *slog.Logger) Service {
	return Service{posts: posts, logger: logger}
}

// Create stores a new post with empty like and comment sequences and
// returns it with the author's name resolved.
func (s Service) Create(ctx context.Context, authorID, body string) (*domain.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	created := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.CreatePost(ctx, created); err != nil {
		return nil, err
	}
	s.logger.Info("post created", "post_id", created.ID, "user_id", authorID)
	return s.posts.GetPostByID(ctx, created.ID)
}

// Get loads a single post.
func (s Service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	return s.posts.GetPostByID(ctx, postID)
}

// List returns all posts, newest first.
func (s Service) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListPosts(ctx)
}

// ListByAuthor returns a user's posts, newest first.
func (s Service) ListByAuthor(ctx context.Context, userID string) ([]domain.Post, error) {
	return s.posts.ListPostsByAuthor(ctx, userID)
}

// Edit overwrites the body of the requester's own post.
func (s Service) Edit(ctx context.Context, postID, requesterID, body string) (*domain.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	existing, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != requesterID {
		return nil, ErrNotAuthorized
	}
	if err := s.posts.UpdatePostBody(ctx, postID, body); err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, postID)
}

// Delete removes the requester's own post together with its embedded
// comments.
func (s Service) Delete(ctx context.Context, postID, requesterID string) error {
	existing, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if existing.UserID != requesterID {
		return ErrNotAuthorized
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.logger.Info("post deleted", "post_id", postID, "user_id", requesterID)
	return nil
}

// Like inserts the user at the head of the post's like sequence. Liking
// twice fails; two concurrent first likes can both pass the membership
// check, an accepted last-write-wins artifact.
func (s Service) Like(ctx context.Context, postID, userID string) (*domain.Post, error) {
	existing, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.HasLike(userID) {
		return nil, ErrAlreadyLiked
	}
	if err := s.posts.InsertLike(ctx, postID, userID); err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, postID)
}

// Unlike removes the user from the like sequence unconditionally; a user
// who never liked the post is a no-op.
func (s Service) Unlike(ctx context.Context, postID, userID string) (*domain.Post, error) {
	if err := s.posts.RemoveLike(ctx, postID, userID); err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, postID)
}

// AddComment inserts a fresh comment at the head of the post's comment
// sequence.
func (s Service) AddComment(ctx context.Context, postID, authorID, body string) (*domain.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	comment := domain.Comment{
		ID:        uuid.NewString(),
		UserID:    authorID,
		Body:      body,
		Likes:     make([]string, 0),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.InsertComment(ctx, postID, comment); err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, postID)
}

// RemoveComment drops comments matching both the id and the requester as
// author. A non-owner's request matches nothing and succeeds as a no-op.
func (s Service) RemoveComment(ctx context.Context, postID, commentID, requesterID string) (*domain.Post, error) {
	if err := s.posts.RemoveComment(ctx, postID, commentID, requesterID); err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, postID)
}
