package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a user's accounts.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeCash       AccountType = "cash"
	AccountTypeInvestment AccountType = "investment"
)

// ParseAccountType validates a raw account type string.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountTypeChecking, AccountTypeCredit, AccountTypeCash, AccountTypeInvestment:
		return AccountType(s), nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// Account is a user-owned account. Balance moves only as a side effect
// of recording transactions, never by direct assignment after creation.
type Account struct {
	ID        int
	UserID    int
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	CreatedAt time.Time
}
