// Package db opens the SQL database that backs the client's state store.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Schema is valid for both sqlite3 and postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS client_state (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Open connects with the given driver ("sqlite3" or "postgres"), checks the
// connection and makes sure the schema exists.
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
