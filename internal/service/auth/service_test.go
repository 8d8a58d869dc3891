package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/devnet/api/internal/domain"
	"github.com/devnet/api/internal/repository"
	"github.com/devnet/api/pkg/config"
	"github.com/devnet/api/pkg/token"
)

type userRepoStub struct {
	byEmail map[string]*domain.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{byEmail: make(map[string]*domain.User)}
}

func (s *userRepoStub) CreateUser(ctx context.Context, user *domain.User) error {
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	copied := *user
	s.byEmail[user.Email] = &copied
	return nil
}

func (s *userRepoStub) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	for email, user := range s.byEmail {
		if user.ID == id {
			delete(s.byEmail, email)
			return nil
		}
	}
	return repository.ErrNotFound
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
}

func TestRegisterIssuesTokenForCreatedUser(t *testing.T) {
	repo := newUserRepoStub()
	svc := New(repo, newLogger(), testConfig())

	signed, err := svc.Register(context.Background(), "Alice", "a@x.com", "ab12cd")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := token.Parse(signed, "test-secret")
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	stored, ok := repo.byEmail["a@x.com"]
	if !ok {
		t.Fatal("expected user to be stored")
	}
	if claims.User.ID != stored.ID {
		t.Fatalf("token identity %q does not match stored user %q", claims.User.ID, stored.ID)
	}
}

func TestRegisterNeverStoresPlaintext(t *testing.T) {
	repo := newUserRepoStub()
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "ab12cd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	stored := repo.byEmail["a@x.com"]
	if bytes.Contains(stored.PasswordHash, []byte("ab12cd")) {
		t.Fatal("raw password leaked into stored hash")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "ab12cd"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	first := repo.byEmail["a@x.com"].ID

	if _, err := svc.Register(context.Background(), "Mallory", "a@x.com", "xy34zw"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("expected one credential record, got %d", len(repo.byEmail))
	}
	if repo.byEmail["a@x.com"].ID != first {
		t.Fatal("original record was replaced")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newUserRepoStub()
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "ab12cd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", "wrong99"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := New(newUserRepoStub(), newLogger(), testConfig())
	if _, err := svc.Login(context.Background(), "nobody@x.com", "ab12cd"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	repo := newUserRepoStub()
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "ab12cd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	signed, err := svc.Login(context.Background(), "a@x.com", "ab12cd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := token.Parse(signed, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.User.ID != repo.byEmail["a@x.com"].ID {
		t.Fatal("login token resolves to a different identity")
	}
}

func TestMeReturnsAccount(t *testing.T) {
	repo := newUserRepoStub()
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "ab12cd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	id := repo.byEmail["a@x.com"].ID
	user, err := svc.Me(context.Background(), id)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.Name != "Alice" || user.Email != "a@x.com" {
		t.Fatalf("unexpected account: %+v", user)
	}
}
