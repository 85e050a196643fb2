// Package auth implements the credential store: registration with
// bcrypt-hashed passwords and login verification.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

// UserStore is the slice of the store the credential service needs.
type UserStore interface {
	CreateUser(email, passwordHash string) (model.User, error)
	UserByEmail(email string) (model.User, error)
}

// Service registers and authenticates users.
type Service struct {
	store UserStore
	cost  int
}

// NewService creates a credential service. cost is the bcrypt cost
// factor; values below bcrypt.MinCost fall back to bcrypt.DefaultCost.
func NewService(userStore UserStore, cost int) *Service {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: userStore, cost: cost}
}

// CreateUser registers a new user. The password is hashed before it is
// persisted; store.ErrDuplicateUser surfaces unchanged so callers can
// tell the user to log in instead.
func (s *Service) CreateUser(email, password string) (model.User, error) {
	if email == "" || password == "" {
		return model.User{}, errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}
	return s.store.CreateUser(email, string(hash))
}

// Authenticate verifies a login attempt. It returns nil for both an
// unknown email and a wrong password, so callers cannot distinguish the
// two and leak account existence. A non-nil error means the store
// itself failed.
func (s *Service) Authenticate(email, password string) (*model.User, error) {
	user, err := s.store.UserByEmail(email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}
	return &user, nil
}
