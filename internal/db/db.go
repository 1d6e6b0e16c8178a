// Package db owns the collection's relational metadata store: opening the
// SQLite database, applying schema migrations, and exposing the repositories
// that operate on it.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the metadata database connection. All repositories read
// from and write through the same *sql.DB, which is configured as a
// sole-writer connection to avoid SQLITE_BUSY under SQLite's single-writer
// model.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the metadata database at dbPath, enables foreign key
// enforcement and a busy timeout via DSN pragmas, and applies any pending
// schema migrations. Use ":memory:" for tests.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	dsn := dbPath + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"

	logger.Info("opening metadata database", "path", dbPath)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}

	// SQLite allows only one writer at a time; serializing through a single
	// connection avoids busy-retry storms under concurrent pipeline steps.
	sqlDB.SetMaxOpenConns(1)

	if err := runMigrations(ctx, sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info("metadata database ready", "path", dbPath)

	return &Store{db: sqlDB, logger: logger}, nil
}

// DB returns the underlying connection, for repositories and callers that
// need to begin their own transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back if fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("db: rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db: commit transaction: %w", err)
	}

	return nil
}

// runMigrations applies embedded SQL migrations in order using goose's
// Provider API.
func runMigrations(ctx context.Context, sqlDB *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("db: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, subFS)
	if err != nil {
		return fmt.Errorf("db: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("db: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}
