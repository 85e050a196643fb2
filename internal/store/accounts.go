package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
)

// CreateAccount creates an account for a user with an opening balance.
func (s *Store) CreateAccount(userID int, name string, accountType model.AccountType, balance decimal.Decimal) (model.Account, error) {
	if _, err := model.ParseAccountType(string(accountType)); err != nil {
		return model.Account{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.Exec(
		`INSERT INTO accounts (user_id, name, type, balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, name, string(accountType), balance.String(), now.Format(timestampFormat),
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("inserting account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Account{}, fmt.Errorf("reading account id: %w", err)
	}
	return model.Account{
		ID:        int(id),
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		Balance:   balance,
		CreatedAt: now,
	}, nil
}

// ListAccounts returns all accounts owned by a user in insertion order.
func (s *Store) ListAccounts(userID int) ([]model.Account, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, type, balance, created_at
		 FROM accounts WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		var typ, balance, createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &typ, &balance, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.Type = model.AccountType(typ)
		a.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("parsing balance %q: %w", balance, err)
		}
		a.CreatedAt, err = time.Parse(timestampFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// NetWorth returns the exact decimal sum of all account balances owned
// by a user.
func (s *Store) NetWorth(userID int) (decimal.Decimal, error) {
	rows, err := s.db.Query(`SELECT balance FROM accounts WHERE user_id = ?`, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying balances: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var balance string
		if err := rows.Scan(&balance); err != nil {
			return decimal.Zero, fmt.Errorf("scanning balance: %w", err)
		}
		d, err := decimal.NewFromString(balance)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing balance %q: %w", balance, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}
