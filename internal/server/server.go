// Package server exposes the tracker over HTTP. It is a thin JSON
// boundary: handlers decode input, call the credential store, ledger
// store, or importer, and render the result.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/session"
	"github.com/tally-dev/tally/internal/store"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "tally_session"

// Server wires the HTTP routes to the stores.
type Server struct {
	store    *store.Store
	auth     *auth.Service
	sessions *session.Manager
}

// New creates a Server.
func New(st *store.Store, authSvc *auth.Service, sessions *session.Manager) *Server {
	return &Server{store: st, auth: authSvc, sessions: sessions}
}

// Router builds the chi route tree.
func (s *Server) Router() *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(middleware.Logger)

	mux.Post("/api/register", s.handleRegister)
	mux.Post("/api/login", s.handleLogin)
	mux.Post("/api/logout", s.handleLogout)
	mux.Get("/api/bootstrap", s.handleBootstrap)

	mux.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/api/accounts", s.handleListAccounts)
		r.Post("/api/accounts", s.handleCreateAccount)
		r.Get("/api/transactions", s.handleListTransactions)
		r.Post("/api/transactions", s.handleCreateTransaction)
		r.Get("/api/networth", s.handleNetWorth)
		r.Post("/api/import", s.handleImport)
		r.Get("/api/export", s.handleExport)
	})

	return mux
}

type contextKey struct{}

// requireSession resolves the login cookie and attaches the session to
// the request context. Requests without a valid session get a 401.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		sess, ok := s.sessions.Get(cookie.Value)
		if !ok {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by requireSession.
func sessionFrom(r *http.Request) session.Session {
	sess, _ := r.Context().Value(contextKey{}).(session.Session)
	return sess
}
