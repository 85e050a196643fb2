package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tally-dev/tally/internal/model"
)

// BackupFilename is the conventional name for a downloaded export.
const BackupFilename = "pf-backup.json"

// Document is a JSON-serializable snapshot of one user's ledger,
// suitable for later re-import. The password hash is never included.
type Document struct {
	User         DocumentUser          `json:"user"`
	Accounts     []DocumentAccount     `json:"accounts"`
	Transactions []DocumentTransaction `json:"transactions"`
}

// DocumentUser identifies the exported user.
type DocumentUser struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// DocumentAccount is one account in an export snapshot.
type DocumentAccount struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Balance json.Number `json:"balance"`
}

// DocumentTransaction is one transaction in an export snapshot.
type DocumentTransaction struct {
	ID          int         `json:"id"`
	AccountID   int         `json:"account_id"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Category    *string     `json:"category"`
}

// Export builds the snapshot document for a user. An unknown user
// yields an empty document, not an error.
func (s *Store) Export(userID int) (Document, error) {
	user, err := s.UserByID(userID)
	if errors.Is(err, ErrNotFound) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		User: DocumentUser{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.Format(timestampFormat),
		},
		Accounts:     []DocumentAccount{},
		Transactions: []DocumentTransaction{},
	}

	accounts, err := s.ListAccounts(userID)
	if err != nil {
		return Document{}, fmt.Errorf("exporting accounts: %w", err)
	}
	for _, a := range accounts {
		doc.Accounts = append(doc.Accounts, DocumentAccount{
			ID:      a.ID,
			Name:    a.Name,
			Type:    string(a.Type),
			Balance: json.Number(a.Balance.String()),
		})
	}

	txns, err := s.allTransactions(userID)
	if err != nil {
		return Document{}, fmt.Errorf("exporting transactions: %w", err)
	}
	for _, t := range txns {
		dt := DocumentTransaction{
			ID:          t.ID,
			AccountID:   t.AccountID,
			Amount:      json.Number(t.Amount.String()),
			Date:        t.Date.Format(dateFormat),
			Description: t.Description,
		}
		if t.Category != "" {
			category := t.Category
			dt.Category = &category
		}
		doc.Transactions = append(doc.Transactions, dt)
	}
	return doc, nil
}

// allTransactions returns every transaction for a user in insertion
// order, for export snapshots.
func (s *Store) allTransactions(userID int) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, account_id, amount, date, description, category, imported, created_at
		 FROM transactions WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
