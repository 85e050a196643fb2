// Package store persists users, accounts, and transactions in SQLite
// and maintains the ledger invariant: an account's balance always equals
// its opening balance plus the sum of its recorded transaction amounts.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUser is returned when registering an email that is
	// already taken.
	ErrDuplicateUser = errors.New("email already registered")
	// ErrAccountNotFound is returned when a transaction targets an
	// account that does not exist or belongs to another user.
	ErrAccountNotFound = errors.New("account not found for user")
)

// Store wraps the SQLite database holding a deployment's ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Monetary columns are stored as TEXT and round-tripped through
// shopspring/decimal so no binary floating point enters the ledger.
func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'checking',
			balance TEXT NOT NULL DEFAULT '0',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			amount TEXT NOT NULL,
			date TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT,
			imported INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
