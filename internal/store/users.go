package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tally-dev/tally/internal/model"
)

const timestampFormat = time.RFC3339

// CreateUser inserts a new user row. The caller supplies the already
// hashed password; plaintext never reaches this layer.
func (s *Store) CreateUser(email, passwordHash string) (model.User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now.Format(timestampFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("reading user id: %w", err)
	}
	return model.User{
		ID:           int(id),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// UserByEmail returns the user registered under email, or ErrNotFound.
func (s *Store) UserByEmail(email string) (model.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

// UserByID returns the user with the given id, or ErrNotFound.
func (s *Store) UserByID(id int) (model.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// UserCount returns the number of registered users. The presentation
// layer uses it to gate the first-run bootstrap flow.
func (s *Store) UserCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scanning user: %w", err)
	}
	u.CreatedAt, err = time.Parse(timestampFormat, createdAt)
	if err != nil {
		return model.User{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	return u, nil
}
