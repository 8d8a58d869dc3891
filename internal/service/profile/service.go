package profile

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

// ErrNoProfile indicates the user has not created a profile yet.
var ErrNoProfile = errors.New("this user does not have a profile")

// Service manages profile documents and their embedded experience entries.
type Service struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(profiles repository.ProfileRepository, users repository.UserRepository, logger *slog.Logger) Service {
	return Service{profiles: profiles, users: users, logger: logger}
}

// UpsertInput carries profile fields. Nil optional fields are left
// untouched on update; Status is always supplied (transport-validated).
type UpsertInput struct {
	Status  string
	Website *string
	Skills  *string // comma-separated tags
	Social  map[string]string
}

// ExperienceInput carries a new experience entry.
type ExperienceInput struct {
	Title       string
	Company     string
	Location    string
	From        time.Time
	To          *time.Time
	Current     bool
	Description string
}

// Upsert lazily creates the profile on first call, otherwise applies a
// partial update where only supplied fields overwrite stored values.
// Returns the resulting profile with the owner's name resolved.
func (s Service) Upsert(ctx context.Context, userID string, in UpsertInput) (*domain.Profile, error) {
	// An empty string for an optional field counts as absent, so it
	// never clobbers a stored value on update.
	website := in.Website
	if website != nil && *website == "" {
		website = nil
	}
	var skills []string
	if in.Skills != nil && *in.Skills != "" {
		skills = splitSkills(*in.Skills)
	}

	_, err := s.profiles.GetProfileByUser(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		created := &domain.Profile{
			UserID:     userID,
			Status:     in.Status,
			Skills:     skills,
			Social:     in.Social,
			Experience: make([]domain.Experience, 0),
		}
		if website != nil {
			created.Website = *website
		}
		if err := s.profiles.CreateProfile(ctx, created); err != nil {
			return nil, err
		}
		s.logger.Info("profile created", "user_id", userID)
	case err != nil:
		return nil, err
	default:
		update := repository.ProfileUpdate{
			Status:  &in.Status,
			Website: website,
			Skills:  skills,
			Social:  in.Social,
		}
		if err := s.profiles.UpdateProfile(ctx, userID, update); err != nil {
			return nil, err
		}
	}
	return s.profiles.GetProfileByUser(ctx, userID)
}

// Get returns the user's profile with the owner's name resolved.
func (s Service) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	prof, err := s.profiles.GetProfileByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return prof, nil
}

// ListAll returns every profile with owner names resolved.
func (s Service) ListAll(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.ListProfiles(ctx)
}

// AddExperience inserts a fresh entry at the head of the user's
// experience sequence.
func (s Service) AddExperience(ctx context.Context, userID string, in ExperienceInput) (*domain.Profile, error) {
	exp := domain.Experience{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		From:        in.From,
		To:          in.To,
		Current:     in.Current,
		Description: in.Description,
	}
	if err := s.profiles.InsertExperience(ctx, userID, exp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return s.profiles.GetProfileByUser(ctx, userID)
}

// RemoveExperience drops the entry with the given id. Removing an id
// that does not exist is a no-op, not an error.
func (s Service) RemoveExperience(ctx context.Context, userID, experienceID string) (*domain.Profile, error) {
	if err := s.profiles.RemoveExperience(ctx, userID, experienceID); err != nil {
		return nil, err
	}
	prof, err := s.profiles.GetProfileByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoProfile
		}
		return nil, err
	}
	return prof, nil
}

// DeleteAccount removes the profile first and the user second. The two
// steps are ordered, not transactional; a failure between them leaves a
// known inconsistency window.
func (s Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.profiles.DeleteProfileByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deleted", "user_id", userID)
	return nil
}

func splitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}
	return skills
}
