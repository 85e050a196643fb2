package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger movement against an account.
// Transactions are immutable once recorded.
type Transaction struct {
	ID          int
	UserID      int
	AccountID   int
	Amount      decimal.Decimal // negative = debit, positive = credit
	Date        time.Time       // calendar date, time-of-day ignored
	Description string
	Category    string
	Imported    bool // true when sourced from a CSV import
	CreatedAt   time.Time
}
