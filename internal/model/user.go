package model

import "time"

// User is a registered identity. PasswordHash is a bcrypt digest;
// plaintext passwords are never persisted.
type User struct {
	ID           int
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
