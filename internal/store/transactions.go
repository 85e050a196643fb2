package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

const dateFormat = "2006-01-02"

// DefaultListLimit caps ListTransactions when the caller passes no
// explicit limit.
const DefaultListLimit = 200

// TransactionParams holds the inputs for recording a transaction.
type TransactionParams struct {
	UserID      int
	AccountID   int
	Amount      decimal.Decimal
	Date        time.Time // zero value means today
	Description string
	Category    string
	Imported    bool
}

// CreateTransaction records a transaction and adjusts the owning
// account's balance. Both writes share one database transaction, so the
// row insert and the balance update succeed or fail as a unit. The
// account must belong to the user; otherwise ErrAccountNotFound is
// returned and nothing is written.
func (s *Store) CreateTransaction(params TransactionParams) (model.Transaction, error) {
	date := params.Date
	if date.IsZero() {
		date = time.Now()
	}
	// Keep calendar dates only; time-of-day never enters the ledger.
	date, _ = time.Parse(dateFormat, date.Format(dateFormat))

	tx, err := s.db.Begin()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var balance string
	err = tx.QueryRow(
		`SELECT balance FROM accounts WHERE id = ? AND user_id = ?`,
		params.AccountID, params.UserID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, ErrAccountNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("looking up account: %w", err)
	}
	prev, err := decimal.NewFromString(balance)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance %q: %w", balance, err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	var category any
	if params.Category != "" {
		category = params.Category
	}
	res, err := tx.Exec(
		`INSERT INTO transactions (user_id, account_id, amount, date, description, category, imported, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		params.UserID, params.AccountID, params.Amount.String(), date.Format(dateFormat),
		params.Description, category, params.Imported, now.Format(timestampFormat),
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Transaction{}, fmt.Errorf("reading transaction id: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE accounts SET balance = ? WHERE id = ?`,
		prev.Add(params.Amount).String(), params.AccountID,
	); err != nil {
		return model.Transaction{}, fmt.Errorf("updating balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Transaction{}, fmt.Errorf("committing transaction: %w", err)
	}

	return model.Transaction{
		ID:          int(id),
		UserID:      params.UserID,
		AccountID:   params.AccountID,
		Amount:      params.Amount,
		Date:        date,
		Description: params.Description,
		Category:    params.Category,
		Imported:    params.Imported,
		CreatedAt:   now,
	}, nil
}

// ListTransactions returns up to limit of the user's most recent
// transactions, newest date first. Same-date rows order by insertion id
// descending so the listing is stable.
func (s *Store) ListTransactions(userID, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(
		`SELECT id, user_id, account_id, amount, date, description, category, imported, created_at
		 FROM transactions WHERE user_id = ?
		 ORDER BY date DESC, id DESC LIMIT ?`,
		userID, limit,
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

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var t model.Transaction
	var amount, date, createdAt string
	var category sql.NullString
	if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &amount, &date, &t.Description, &category, &t.Imported, &createdAt); err != nil {
		return model.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}
	var err error
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	t.Date, err = time.Parse(dateFormat, date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", date, err)
	}
	t.CreatedAt, err = time.Parse(timestampFormat, createdAt)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	t.Category = category.String
	return t, nil
}
