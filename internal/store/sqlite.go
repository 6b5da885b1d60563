package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/folio/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Storage using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy
}

// NewSQLite creates a new SQLite-backed store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Pragmas in the DSN run on every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS visitors (
		scope TEXT PRIMARY KEY,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visitors_last_seen ON visitors(last_seen_at);

	CREATE TABLE IF NOT EXISTS kv (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (scope, key)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the value stored under key in scope.
func (s *SQLiteStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND key = ?`, scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key in scope and marks the scope as active.
func (s *SQLiteStore) Set(ctx context.Context, scope, key, value string) error {
	now := time.Now().Unix()
	return shared.RetryOnConflict(ctx, s.retry, "store.Set", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin set: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := touch(ctx, tx, scope, now); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(scope, key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at`,
			scope, key, value, now,
		)
		if err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return tx.Commit()
	})
}

// Delete removes key from scope.
func (s *SQLiteStore) Delete(ctx context.Context, scope, key string) error {
	return shared.RetryOnConflict(ctx, s.retry, "store.Delete", func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, scope, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// Touch records activity for scope.
func (s *SQLiteStore) Touch(ctx context.Context, scope string) error {
	return shared.RetryOnConflict(ctx, s.retry, "store.Touch", func() error {
		return touch(ctx, s.db, scope, time.Now().Unix())
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func touch(ctx context.Context, db execer, scope string, now int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO visitors (scope, last_seen_at, created_at) VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		scope, now, now,
	)
	if err != nil {
		return fmt.Errorf("touch visitor: %w", err)
	}
	return nil
}

// PurgeStale removes visitors idle longer than ttl together with their values.
func (s *SQLiteStore) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	var purged int64
	err := shared.RetryOnConflict(ctx, s.retry, "store.PurgeStale", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin purge: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM kv WHERE scope IN (SELECT scope FROM visitors WHERE last_seen_at < ?)`,
			threshold,
		); err != nil {
			return fmt.Errorf("purge values: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM visitors WHERE last_seen_at < ?`, threshold)
		if err != nil {
			return fmt.Errorf("purge visitors: %w", err)
		}
		purged, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("purge rows affected: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		slog.Debug("Purged stale visitors", "count", purged, "ttl", ttl)
	}
	return purged, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
