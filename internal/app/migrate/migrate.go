package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/devnet/api/pkg/config"
)

const (
	migrationTimeout = time.Minute
	pingTimeout      = 5 * time.Second
)

// Migrator applies goose SQL migrations over the pool's DSN. Goose needs
// a database/sql handle, so each operation opens a short-lived one via
// the pgx stdlib driver rather than borrowing from the pool.
type Migrator struct {
	pool *pgxpool.Pool
	cfg  config.APIConfig
	log  *slog.Logger
}

func New(pool *pgxpool.Pool, cfg config.APIConfig, log *slog.Logger) (Migrator, error) {
	if pool == nil {
		return Migrator{}, errors.New("nil pool provided")
	}
	if cfg.DatabaseURL == "" {
		return Migrator{}, errors.New("empty database url")
	}
	if _, err := os.Stat(cfg.MigrationsDir); err != nil {
		return Migrator{}, fmt.Errorf("locate migrations dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return Migrator{pool: pool, cfg: cfg, log: log}, nil
}

// Up applies every pending migration.
func (m Migrator) Up(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context, db *sql.DB) error {
		m.log.Info("applying migrations", "dir", m.cfg.MigrationsDir)
		if err := goose.UpContext(ctx, db, m.cfg.MigrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		m.log.Info("schema up to date")
		return nil
	})
}

// Status prints applied and pending migrations.
func (m Migrator) Status(ctx context.Context) error {
	return m.run(ctx, func(ctx context.Context, db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, m.cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Rollback undoes the latest migration, or everything above target when
// target is positive.
func (m Migrator) Rollback(ctx context.Context, target int64) error {
	return m.run(ctx, func(ctx context.Context, db *sql.DB) error {
		if target > 0 {
			m.log.Info("rolling back", "target", target)
			if err := goose.DownToContext(ctx, db, m.cfg.MigrationsDir, target); err != nil {
				return fmt.Errorf("rollback to version %d: %w", target, err)
			}
			return nil
		}
		m.log.Info("rolling back latest migration")
		if err := goose.DownContext(ctx, db, m.cfg.MigrationsDir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

// Ping verifies pool connectivity.
func (m Migrator) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := m.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the pool.
func (m Migrator) Close() {
	m.pool.Close()
}

func (m Migrator) run(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	db, err := sql.Open("pgx", m.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer db.Close()

	runCtx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()
	if err := db.PingContext(runCtx); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}
	return fn(runCtx, db)
}
