package repository

import (
	"context"

	"github.com/devnet/api/internal/domain"
)

// UserRepository persists account credentials.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ProfileUpdate is a partial profile mutation. Nil fields are left untouched.
type ProfileUpdate struct {
	Status  *string
	Website *string
	Skills  []string
	Social  map[string]string
}

// ProfileRepository persists the one-per-user profile documents.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
	GetProfileByUser(ctx context.Context, userID string) (*domain.Profile, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	// InsertExperience prepends an entry to the profile's experience
	// sequence; ErrNotFound when the user has no profile.
	InsertExperience(ctx context.Context, userID string, exp domain.Experience) error
	// RemoveExperience drops the entry with the given id. Removing an
	// absent id is a no-op.
	RemoveExperience(ctx context.Context, userID, experienceID string) error
	// DeleteProfileByUser removes the profile document; absent is not an error.
	DeleteProfileByUser(ctx context.Context, userID string) error
}

// PostRepository persists posts with their embedded like and comment sequences.
type PostRepository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPostByID(ctx context.Context, postID string) (*domain.Post, error)
	ListPosts(ctx context.Context) ([]domain.Post, error)
	ListPostsByAuthor(ctx context.Context, userID string) ([]domain.Post, error)
	UpdatePostBody(ctx context.Context, postID, body string) error
	DeletePost(ctx context.Context, postID string) error
	// InsertLike prepends userID to the post's like sequence. Membership
	// uniqueness is the caller's concern.
	InsertLike(ctx context.Context, postID, userID string) error
	// RemoveLike drops userID from the like sequence; absent is a no-op.
	RemoveLike(ctx context.Context, postID, userID string) error
	// InsertComment prepends a comment to the post's comment sequence.
	InsertComment(ctx context.Context, postID string, comment domain.Comment) error
	// RemoveComment drops comments matching both id and author. A non-owner's
	// id matches nothing and the call succeeds without effect.
	RemoveComment(ctx context.Context, postID, commentID, authorID string) error
}
