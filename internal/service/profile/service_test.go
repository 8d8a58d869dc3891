package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/devnet/api/internal/domain"
	"github.com/devnet/api/internal/repository"
)

// profileRepoStub mirrors the storage semantics: partial updates keep
// unset fields, experience entries are prepended, removals are no-ops
// when nothing matches.
type profileRepoStub struct {
	profiles map[string]*domain.Profile
	names    map[string]string
}

func newProfileRepoStub() *profileRepoStub {
	return &profileRepoStub{
		profiles: make(map[string]*domain.Profile),
		names:    map[string]string{"user-a": "Alice", "user-b": "Bob"},
	}
}

func (s *profileRepoStub) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

func (s *profileRepoStub) UpdateProfile(ctx context.Context, userID string, update repository.ProfileUpdate) error {
	stored, ok := s.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Status != nil {
		stored.Status = *update.Status
	}
	if update.Website != nil {
		stored.Website = *update.Website
	}
	if update.Skills != nil {
		stored.Skills = update.Skills
	}
	if update.Social != nil {
		stored.Social = update.Social
	}
	return nil
}

func (s *profileRepoStub) GetProfileByUser(ctx context.Context, userID string) (*domain.Profile, error) {
	stored, ok := s.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *stored
	copied.Experience = append(make([]domain.Experience, 0, len(stored.Experience)), stored.Experience...)
	copied.UserName = s.names[userID]
	return &copied, nil
}

func (s *profileRepoStub) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles := make([]domain.Profile, 0, len(s.profiles))
	for userID := range s.profiles {
		profile, _ := s.GetProfileByUser(ctx, userID)
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

func (s *profileRepoStub) InsertExperience(ctx context.Context, userID string, exp domain.Experience) error {
	stored, ok := s.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Experience = append([]domain.Experience{exp}, stored.Experience...)
	return nil
}

func (s *profileRepoStub) RemoveExperience(ctx context.Context, userID, experienceID string) error {
	stored, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	entries := make([]domain.Experience, 0, len(stored.Experience))
	for _, entry := range stored.Experience {
		if entry.ID != experienceID {
			entries = append(entries, entry)
		}
	}
	stored.Experience = entries
	return nil
}

func (s *profileRepoStub) DeleteProfileByUser(ctx context.Context, userID string) error {
	delete(s.profiles, userID)
	return nil
}

// orderedUserRepoStub records deletion order for the two-step account
// deletion test.
type orderedUserRepoStub struct {
	deletions *[]string
}

func (s orderedUserRepoStub) CreateUser(ctx context.Context, user *domain.User) error { return nil }
func (s orderedUserRepoStub) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}
func (s orderedUserRepoStub) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}
func (s orderedUserRepoStub) DeleteUser(ctx context.Context, id string) error {
	*s.deletions = append(*s.deletions, "user:"+id)
	return nil
}

func newService(profiles *profileRepoStub, users repository.UserRepository) Service {
	return New(profiles, users, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string { return &s }

func TestUpsertCreatesProfileLazily(t *testing.T) {
	repo := newProfileRepoStub()
	svc := newService(repo, orderedUserRepoStub{deletions: &[]string{}})

	created, err := svc.Upsert(context.Background(), "user-a", UpsertInput{
		Status: "building",
		Skills: strPtr(" go, sql ,, docker "),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created.Status != "building" {
		t.Fatalf("unexpected status: %q", created.Status)
	}
	if len(created.Skills) != 3 || created.Skills[0] != "go" || created.Skills[2] != "docker" {
		t.Fatalf("unexpected skills: %v", created.Skills)
	}
	if created.UserName != "Alice" {
		t.Fatalf("expected owner name resolved, got %q", created.UserName)
	}
	if created.Experience == nil || len(created.Experience) != 0 {
		t.Fatalf("new profile must have an empty experience sequence: %v", created.Experience)
	}
}

func TestUpsertPartialUpdateKeepsUnsetFields(t *testing.T) {
	repo := newProfileRepoStub()
	svc := newService(repo, orderedUserRepoStub{deletions: &[]string{}})

	if _, err := svc.Upsert(context.Background(), "user-a", UpsertInput{
		Status:  "building",
		Website: strPtr("https://alice.dev"),
		Skills:  strPtr("go,sql"),
		Social:  map[string]string{"twitter": "@alice"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Upsert(context.Background(), "user-a", UpsertInput{Status: "hiring"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "hiring" {
		t.Fatalf("status not updated: %q", updated.Status)
	}
	if updated.Website != "https://alice.dev" {
		t.Fatalf("unsupplied website was overwritten: %q", updated.Website)
	}
	if len(updated.Skills) != 2 {
		t.Fatalf("unsupplied skills were overwritten: %v", updated.Skills)
	}
	if updated.Social["twitter"] != "@alice" {
		t.Fatalf("unsupplied social links were overwritten: %v", updated.Social)
	}
}

func TestUpsertEmptyStringsCountAsAbsent(t *testing.T) {
	repo := newProfileRepoStub()
	svc := newService(repo, orderedUserRepoStub{deletions: &[]string{}})

	if _, err := svc.Upsert(context.Background(), "user-a", UpsertInput{
		Status:  "building",
		Website: strPtr("https://alice.dev"),
		Skills:  strPtr("go,sql"),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Upsert(context.Background(), "user-a", UpsertInput{
		Status:  "hiring",
		Website: strPtr(""),
		Skills:  strPtr(""),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Website != "https://alice.dev" {
		t.Fatalf("empty website overwrote the stored value: %q", updated.Website)
	}
	if len(updated.Skills) != 2 {
		t.Fatalf("empty skills overwrote the stored value: %v", updated.Skills)
	}
}

func TestGetWithoutProfile(t *testing.T) {
	svc := newService(newProfileRepoStub(), orderedUserRepoStub{deletions: &[]string{}})
	if _, err := svc.Get(context.Background(), "user-a"); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestAddExperienceRequiresProfile(t *testing.T) {
	svc := newService(newProfileRepoStub(), orderedUserRepoStub{deletions: &[]string{}})
	_, err := svc.AddExperience(context.Background(), "user-a", ExperienceInput{
		Title: "Engineer", Company: "Acme", From: time.Now(),
	})
	if !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestAddExperienceInsertsAtHead(t *testing.T) {
	repo := newProfileRepoStub()
	svc := newService(repo, orderedUserRepoStub{deletions: &[]string{}})

	if _, err := svc.Upsert(context.Background(), "user-a", UpsertInput{Status: "building"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if _, err := svc.AddExperience(context.Background(), "user-a", ExperienceInput{
		Title: "Junior", Company: "Acme", From: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("first experience: %v", err)
	}
	updated, err := svc.AddExperience(context.Background(), "user-a", ExperienceInput{
		Title: "Senior", Company: "Acme", From: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("second experience: %v", err)
	}
	if len(updated.Experience) != 2 {
		t.Fatalf("expected two entries, got %d", len(updated.Experience))
	}
	if updated.Experience[0].Title != "Senior" {
		t.Fatalf("expected newest entry first, got %+v", updated.Experience[0])
	}
	if updated.Experience[0].ID == "" || updated.Experience[0].ID == updated.Experience[1].ID {
		t.Fatal("experience entries must carry distinct generated ids")
	}
}

func TestRemoveExperienceIsIdempotent(t *testing.T) {
	repo := newProfileRepoStub()
	svc := newService(repo, orderedUserRepoStub{deletions: &[]string{}})

	if _, err := svc.Upsert(context.Background(), "user-a", UpsertInput{Status: "building"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	withExp, err := svc.AddExperience(context.Background(), "user-a", ExperienceInput{
		Title: "Engineer", Company: "Acme", From: time.Now(),
	})
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	expID := withExp.Experience[0].ID

	unchanged, err := svc.RemoveExperience(context.Background(), "user-a", "no-such-id")
	if err != nil {
		t.Fatalf("remove unknown id: %v", err)
	}
	if len(unchanged.Experience) != 1 {
		t.Fatalf("unknown id removal changed the sequence: %v", unchanged.Experience)
	}

	removed, err := svc.RemoveExperience(context.Background(), "user-a", expID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(removed.Experience) != 0 {
		t.Fatalf("entry not removed: %v", removed.Experience)
	}
}

func TestDeleteAccountRemovesProfileFirst(t *testing.T) {
	repo := newProfileRepoStub()
	deletions := []string{}
	users := orderedUserRepoStub{deletions: &deletions}
	svc := newService(repo, users)

	if _, err := svc.Upsert(context.Background(), "user-a", UpsertInput{Status: "building"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := svc.DeleteAccount(context.Background(), "user-a"); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, ok := repo.profiles["user-a"]; ok {
		t.Fatal("profile still present after account deletion")
	}
	if len(deletions) != 1 || deletions[0] != "user:user-a" {
		t.Fatalf("expected user deletion after profile removal, got %v", deletions)
	}
}

func TestDeleteAccountWithoutProfile(t *testing.T) {
	deletions := []string{}
	svc := newService(newProfileRepoStub(), orderedUserRepoStub{deletions: &deletions})
	if err := svc.DeleteAccount(context.Background(), "user-a"); err != nil {
		t.Fatalf("delete account without profile: %v", err)
	}
	if len(deletions) != 1 {
		t.Fatalf("user record was not deleted: %v", deletions)
	}
}
