package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devnet/api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL. Embedded
// sub-documents (likes, comments, experience) live in jsonb columns on
// their parent rows.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.ProfileRepository = (*Repository)(nil)
	_ repository.PostRepository    = (*Repository)(nil)
)

// translateErr maps driver failures to repository sentinels. Malformed
// uuid input (22P02) and broken references (23503) both read as a lookup
// miss to callers.
func translateErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrDuplicate
		case "22P02", "23503":
			return repository.ErrNotFound
		}
	}
	return err
}

func emptyToNil(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
