package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestUser(t *testing.T, s *Store, email string) int {
	t.Helper()
	u, err := s.CreateUser(email, "$2a$10$notarealhash")
	require.NoError(t, err)
	return u.ID
}
