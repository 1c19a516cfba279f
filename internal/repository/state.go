// Package repository provides SQL persistence for the client's key/value
// state, for setups where the session should live in a database instead of
// a local file.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLStateRepository stores key/value pairs in the client_state table.
// The queries use $n placeholders and ON CONFLICT, which both postgres and
// sqlite3 accept.
type SQLStateRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewSQLStateRepository creates a new SQLStateRepository with the given database connection.
// db must already carry the client_state schema (see db.Open).
func NewSQLStateRepository(db *sql.DB) *SQLStateRepository {
	return &SQLStateRepository{DB: db}
}

// Get returns the value stored under key.
// A missing key is not an error; it yields an empty string.
//
//	ctx: context for cancellation and deadlines
//	key: state key, e.g. "token"
func (r *SQLStateRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE key = $1`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %q: %w", key, err)
	}
	return value, nil
}

// Set inserts or replaces the value stored under key.
func (r *SQLStateRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO client_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (r *SQLStateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM client_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}
