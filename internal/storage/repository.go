// Package storage is the authoritative SQLite store. All entity access
// goes through a UserStore obtained from Repository.ForUser, which binds
// every query to one account.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/isagiyoichii/financial-tracker/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNotFound = errors.New("record not found")

type Repository struct {
	db *sql.DB
}

func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// runMigrations applies any pending schema migrations on its own
// connection so migration locking never interferes with the main pool.
func runMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Ping verifies the database connection, used by readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ForUser returns a store whose every query is bound to the given account.
// Handlers never touch the Repository directly; they go through this so an
// id from another account can only ever produce ErrNotFound.
func (r *Repository) ForUser(userID string) *UserStore {
	return &UserStore{db: r.db, userID: userID}
}

type UserStore struct {
	db     *sql.DB
	userID string
}

func (s *UserStore) UserID() string { return s.userID }

// encodeDate stores a canonical date as RFC3339 text. The invalid sentinel
// is stored as its literal text so it survives a write/read cycle, and a
// zero date as NULL.
func encodeDate(d core.Date) sql.NullString {
	if d.IsInvalid() {
		return sql.NullString{String: core.InvalidDateText, Valid: true}
	}
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(time.RFC3339), Valid: true}
}

func decodeDate(ns sql.NullString) core.Date {
	if !ns.Valid {
		return core.Date{}
	}
	return core.Canonical(ns.String)
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
