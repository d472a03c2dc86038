// Package store persists the content pipeline in SQLite: sites, keywords,
// briefs, drafts, publications, similarity records, kill-switch activations,
// alerts and agent runs.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database behind the pipeline.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	// Best-effort migrations for databases created before these columns.
	_, _ = db.Exec(`ALTER TABLE drafts ADD COLUMN publish_attempts INTEGER NOT NULL DEFAULT 0`)
	_, _ = db.Exec(`ALTER TABLE keywords ADD COLUMN best_position INTEGER NOT NULL DEFAULT 0`)
	_, _ = db.Exec(`ALTER TABLE kill_switch ADD COLUMN trigger_rule TEXT NOT NULL DEFAULT ''`)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on nil error.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetState returns the system_state value for key, or fallback when unset.
func (s *Store) GetState(key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM system_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %s: %w", key, err)
	}
	return value, nil
}

// SetState upserts a system_state key.
func (s *Store) SetState(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO system_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// IntState reads an integer system_state value with a fallback.
func (s *Store) IntState(key string, fallback int) (int, error) {
	raw, err := s.GetState(key, strconv.Itoa(fallback))
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, nil
	}
	return v, nil
}

// FloatState reads a float system_state value with a fallback.
func (s *Store) FloatState(key string, fallback float64) (float64, error) {
	raw, err := s.GetState(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, nil
	}
	return v, nil
}

// SeedDefaults writes configuration-derived defaults into system_state
// without clobbering values an operator already set.
func (s *Store) SeedDefaults(values map[string]string) error {
	now := time.Now().UTC()
	for key, value := range values {
		if _, err := s.db.Exec(`
			INSERT INTO system_state (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO NOTHING`, key, value, now); err != nil {
			return fmt.Errorf("seed state %s: %w", key, err)
		}
	}
	return nil
}

// builder is the squirrel statement builder used for list queries.
// SQLite uses ? placeholders, squirrel's default.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
