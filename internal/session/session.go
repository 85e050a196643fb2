// Package session tracks logged-in users with opaque tokens. Sessions
// are explicit values handed to each request handler, never ambient
// process state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/model"
)

// Session identifies one logged-in user.
type Session struct {
	Token   string
	UserID  int
	Email   string
	Expires time.Time
}

// Manager issues and resolves session tokens in memory.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a Manager whose sessions live for ttl.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create issues a fresh session for a user.
func (m *Manager) Create(user model.User) Session {
	s := Session{
		Token:   uuid.NewString(),
		UserID:  user.ID,
		Email:   user.Email,
		Expires: m.now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// Get resolves a token to its session. Expired sessions are dropped and
// reported as absent.
func (m *Manager) Get(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if m.now().After(s.Expires) {
		delete(m.sessions, token)
		return Session{}, false
	}
	return s, true
}

// Delete ends a session. Unknown tokens are ignored.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
