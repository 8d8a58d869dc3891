package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/devnet/api/internal/domain"
	"github.com/devnet/api/internal/repository"
	"github.com/devnet/api/pkg/config"
	"github.com/devnet/api/pkg/crypto"
	"github.com/devnet/api/pkg/token"
)

var (
	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers both an unknown email and a password
	// mismatch so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles registration, login and identity lookups.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Register creates an account and returns a signed token for it. The raw
// password is hashed before it reaches storage and is never logged.
// Password policy is the transport layer's precondition, not checked here.
func (s Service) Register(ctx context.Context, name, email, password string) (string, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return "", err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrEmailTaken
		}
		return "", err
	}
	signed, err := token.Generate(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return signed, nil
}

// Login verifies credentials and returns a signed token.
func (s Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	signed, err := token.Generate(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return signed, nil
}

// Me returns the account behind an authenticated identity.
func (s Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetUserByID(ctx, userID)
}
