package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/devnet/api/internal/domain"
	"github.com/devnet/api/internal/repository"
)

// CreateProfile inserts a new profile document for a user.
func (r *Repository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	social, err := marshalSocial(profile.Social)
	if err != nil {
		return err
	}
	experience, err := marshalExperience(profile.Experience)
	if err != nil {
		return err
	}
	const query = `INSERT INTO profiles (user_id, status, website, skills, social, experience)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.Status,
		emptyToNil(profile.Website),
		normalizeSkills(profile.Skills),
		social,
		experience,
	); err != nil {
		return translateErr(err)
	}
	return nil
}

// UpdateProfile applies a partial field update. Nil update fields keep
// their stored values.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, update repository.ProfileUpdate) error {
	var social any
	if update.Social != nil {
		encoded, err := marshalSocial(update.Social)
		if err != nil {
			return err
		}
		social = encoded
	}
	const query = `UPDATE profiles
		SET status = COALESCE($2, status),
			website = COALESCE($3, website),
			skills = COALESCE($4, skills),
			social = COALESCE($5, social)
		WHERE user_id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, userID, update.Status, update.Website, update.Skills, social)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetProfileByUser loads a profile with the owner's name resolved.
func (r *Repository) GetProfileByUser(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `SELECT p.user_id, u.name, p.status, p.website, p.skills, p.social, p.experience
		FROM profiles p
		INNER JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`
	row := r.pool.QueryRow(ctx, query, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return profile, nil
}

// ListProfiles returns all profiles with owner names resolved.
func (r *Repository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	const query = `SELECT p.user_id, u.name, p.status, p.website, p.skills, p.social, p.experience
		FROM profiles p
		INNER JOIN users u ON u.id = p.user_id
		ORDER BY u.created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

// InsertExperience prepends an experience entry to the profile's sequence.
func (r *Repository) InsertExperience(ctx context.Context, userID string, exp domain.Experience) error {
	encoded, err := json.Marshal(exp)
	if err != nil {
		return fmt.Errorf("marshal experience: %w", err)
	}
	const query = `UPDATE profiles
		SET experience = jsonb_build_array($2::jsonb) || experience
		WHERE user_id = $1`
	cmdTag, err := r.pool.Exec(ctx, query, userID, encoded)
	if err != nil {
		return translateErr(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveExperience drops the entry with the matching id, preserving the
// order of the rest. An id with no match leaves the sequence unchanged.
func (r *Repository) RemoveExperience(ctx context.Context, userID, experienceID string) error {
	const query = `UPDATE profiles
		SET experience = (
			SELECT COALESCE(jsonb_agg(entry ORDER BY ord), '[]'::jsonb)
			FROM jsonb_array_elements(experience) WITH ORDINALITY AS t(entry, ord)
			WHERE entry->>'id' <> $2
		)
		WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID, experienceID); err != nil {
		return translateErr(err)
	}
	return nil
}

// DeleteProfileByUser removes the profile document if present.
func (r *Repository) DeleteProfileByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM profiles WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return translateErr(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p          domain.Profile
		website    sql.NullString
		social     []byte
		experience []byte
	)
	if err := row.Scan(&p.UserID, &p.UserName, &p.Status, &website, &p.Skills, &social, &experience); err != nil {
		return nil, err
	}
	if website.Valid {
		p.Website = website.String
	}
	if len(social) > 0 {
		if err := json.Unmarshal(social, &p.Social); err != nil {
			return nil, fmt.Errorf("unmarshal social links: %w", err)
		}
	}
	p.Experience = make([]domain.Experience, 0)
	if len(experience) > 0 {
		if err := json.Unmarshal(experience, &p.Experience); err != nil {
			return nil, fmt.Errorf("unmarshal experience: %w", err)
		}
	}
	if p.Skills == nil {
		p.Skills = make([]string, 0)
	}
	return &p, nil
}

// normalizeSkills keeps the skills column non-NULL: pgx encodes a nil
// slice as SQL NULL, which overrides the column default on INSERT.
func normalizeSkills(skills []string) []string {
	if skills == nil {
		return make([]string, 0)
	}
	return skills
}

func marshalSocial(social map[string]string) ([]byte, error) {
	if social == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(social)
	if err != nil {
		return nil, fmt.Errorf("marshal social links: %w", err)
	}
	return encoded, nil
}

func marshalExperience(experience []domain.Experience) ([]byte, error) {
	if experience == nil {
		experience = make([]domain.Experience, 0)
	}
	encoded, err := json.Marshal(experience)
	if err != nil {
		return nil, fmt.Errorf("marshal experience: %w", err)
	}
	return encoded, nil
}
