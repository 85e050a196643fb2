package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/importer"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

const dateFormat = "2006-01-02"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type accountResponse struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Balance json.Number `json:"balance"`
}

type transactionResponse struct {
	ID          int         `json:"id"`
	AccountID   int         `json:"account_id"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Category    string      `json:"category,omitempty"`
	Imported    bool        `json:"imported"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	user, err := s.auth.CreateUser(req.Email, req.Password)
	if errors.Is(err, store.ErrDuplicateUser) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	user, err := s.auth.Authenticate(req.Email, req.Password)
	if err != nil {
		internalError(w, err)
		return
	}
	if user == nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	sess := s.sessions.Create(*user)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.Expires,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.UserCount()
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"first_run": count == 0,
		"users":     count,
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	accounts, err := s.store.ListAccounts(sess.UserID)
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Name    string      `json:"name"`
		Type    string      `json:"type"`
		Balance json.Number `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "account name is required", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		req.Type = string(model.AccountTypeChecking)
	}
	accountType, err := model.ParseAccountType(req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	balance := decimal.Zero
	if req.Balance != "" {
		balance, err = decimal.NewFromString(req.Balance.String())
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid balance %q", req.Balance), http.StatusBadRequest)
			return
		}
	}
	account, err := s.store.CreateAccount(sess.UserID, req.Name, accountType, balance)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountView(account))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", raw), http.StatusBadRequest)
			return
		}
		limit = n
	}
	txns, err := s.store.ListTransactions(sess.UserID, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		AccountID   int         `json:"account_id"`
		Amount      json.Number `json:"amount"`
		Date        string      `json:"date"`
		Description string      `json:"description"`
		Category    string      `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid amount %q", req.Amount), http.StatusBadRequest)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(dateFormat, req.Date)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", req.Date), http.StatusBadRequest)
			return
		}
	}
	txn, err := s.store.CreateTransaction(store.TransactionParams{
		UserID:      sess.UserID,
		AccountID:   req.AccountID,
		Amount:      amount,
		Date:        date,
		Description: req.Description,
		Category:    req.Category,
	})
	if errors.Is(err, store.ErrAccountNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionView(txn))
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	total, err := s.store.NetWorth(sess.UserID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.Number{
		"net_worth": json.Number(total.String()),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	accountID, err := strconv.Atoi(r.FormValue("account_id"))
	if err != nil {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "CSV file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	records, err := importer.Parse(file)
	if errors.Is(err, importer.ErrMalformedInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	created, err := importer.NewImporter(s.store).Import(sess.UserID, accountID, records)
	if errors.Is(err, store.ErrAccountNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		// Earlier rows stay committed; report how far the import got.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":    "import failed partway",
			"imported": len(created),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(created)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	doc, err := s.store.Export(sess.UserID)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", store.BackupFilename))
	_ = json.NewEncoder(w).Encode(doc)
}

func accountView(a model.Account) accountResponse {
	return accountResponse{
		ID:      a.ID,
		Name:    a.Name,
		Type:    string(a.Type),
		Balance: json.Number(a.Balance.String()),
	}
}

func transactionView(t model.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Amount:      json.Number(t.Amount.String()),
		Date:        t.Date.Format(dateFormat),
		Description: t.Description,
		Category:    t.Category,
		Imported:    t.Imported,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// internalError hides storage faults behind a generic message so the
// boundary never crashes or leaks internals.
func internalError(w http.ResponseWriter, _ error) {
	http.Error(w, "internal error", http.StatusInternalServerError)
}
