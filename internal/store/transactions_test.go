package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
)

func TestCreateTransaction_AdjustsBalance(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s, "alice@example.com")
	account, err := s.CreateAccount(userID, "Checking", model.AccountTypeChecking, dec("100"))
	require.NoError(t, err)

	txn, err := s.CreateTransaction(TransactionParams{
		UserID:      userID,
		AccountID:   account.ID,
		Amount:      dec("-12.50"),
		Date:        date(2024, time.January, 1),
		Description: "coffee",
		Category:    "food",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, txn.ID)
	assert.False(t, txn.Imported)

	accounts, err := s.ListAccounts(userID)
	require.NoError(t, err)
	assert.True(t, accounts[0].Balance.Equal(dec("87.50")), "got %s", accounts[0].Balance)
}

func TestCreateTransaction_BalanceInvariantUnderRepeatedCents(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s, "alice@example.com")
	account, err := s.CreateAccount(userID, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)

	// 150 credits and 50 debits of one cent each. Floating point would
	// drift here; the ledger must not.
	sum := decimal.Zero
	for i := 0; i < 200; i++ {
		amount := dec("0.01")
		if i%4 == 3 {
			amount = dec("-0.01")
		}
		_, err := s.CreateTransaction(TransactionParams{
			UserID:    userID,
			AccountID: account.ID,
			Amount:    amount,
			Date:      date(2024, time.March, 1+i%28),
		})
		require.NoError(t, err)
		sum = sum.Add(amount)
	}

	accounts, err := s.ListAccounts(userID)
	require.NoError(t, err)
	assert.True(t, accounts[0].Balance.Equal(sum), "balance %s, applied sum %s", accounts[0].Balance, sum)
	assert.Equal(t, "1.00", accounts[0].Balance.StringFixed(2))
}

func TestCreateTransaction_AccountNotOwned(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice@example.com")
	bob := newTestUser(t, s, "bob@example.com")
	account, err := s.CreateAccount(bob, "Bob Checking", model.AccountTypeChecking, dec("50"))
	require.NoError(t, err)

	// The write is rejected outright: no orphan transaction row, no
	// balance change.
	_, err = s.CreateTransaction(TransactionParams{
		UserID:    alice,
		AccountID: account.ID,
		Amount:    dec("10"),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	txns, err := s.ListTransactions(alice, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)

	accounts, err := s.ListAccounts(bob)
	require.NoError(t, err)
	assert.True(t, accounts[0].Balance.Equal(dec("50")))
}

func TestCreateTransaction_UnknownAccount(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s, "alice@example.com")

	_, err := s.CreateTransaction(TransactionParams{
		UserID:    userID,
		AccountID: 999,
		Amount:    dec("10"),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCreateTransaction_DefaultsDateToToday(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s, "alice@example.com")
	account, err := s.CreateAccount(userID, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)

	txn, err := s.CreateTransaction(TransactionParams{
		UserID:    userID,
		AccountID: account.ID,
		Amount:    dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), txn.Date.Format("2006-01-02"))
}

func TestListTransactions_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s, "alice@example.com")
	account, err := s.CreateAccount(userID, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)

	days := []int{5, 1, 3, 3, 9}
	for i, day := range days {
		_, err := s.CreateTransaction(TransactionParams{
			UserID:      userID,
			AccountID:   account.ID,
			Amount:      dec("1"),
			Date:        date(2024, time.June, day),
			Description: string(rune('a' + i)),
		})
		require.NoError(t, err)
	}

	txns, err := s.ListTransactions(userID, 0)
	require.NoError(t, err)
	require.Len(t, txns, 5)

	// Newest date first; same-date rows by insertion id descending.
	assert.Equal(t, 9, txns[0].Date.Day())
	assert.Equal(t, 5, txns[1].Date.Day())
	assert.Equal(t, 3, txns[2].Date.Day())
	assert.Equal(t, "d", txns[2].Description)
	assert.Equal(t, 3, txns[3].Date.Day())
	assert.Equal(t, "c", txns[3].Description)
	assert.Equal(t, 1, txns[4].Date.Day())

	limited, err := s.ListTransactions(userID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, 9, limited[0].Date.Day())
	assert.Equal(t, 5, limited[1].Date.Day())
}

func TestListTransactions_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice@example.com")
	bob := newTestUser(t, s, "bob@example.com")
	aliceAcct, err := s.CreateAccount(alice, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)
	bobAcct, err := s.CreateAccount(bob, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)

	_, err = s.CreateTransaction(TransactionParams{UserID: alice, AccountID: aliceAcct.ID, Amount: dec("1")})
	require.NoError(t, err)
	_, err = s.CreateTransaction(TransactionParams{UserID: bob, AccountID: bobAcct.ID, Amount: dec("2")})
	require.NoError(t, err)

	txns, err := s.ListTransactions(alice, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Amount.Equal(dec("1")))
}

func TestTransactionRoundTrip_CategoryAndFlags(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s, "alice@example.com")
	account, err := s.CreateAccount(userID, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)

	_, err = s.CreateTransaction(TransactionParams{
		UserID:      userID,
		AccountID:   account.ID,
		Amount:      dec("1000"),
		Date:        date(2024, time.January, 2),
		Description: "paycheck",
		Category:    "income",
		Imported:    true,
	})
	require.NoError(t, err)
	_, err = s.CreateTransaction(TransactionParams{
		UserID:    userID,
		AccountID: account.ID,
		Amount:    dec("-3"),
		Date:      date(2024, time.January, 3),
	})
	require.NoError(t, err)

	txns, err := s.ListTransactions(userID, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Empty(t, txns[0].Category)
	assert.False(t, txns[0].Imported)

	assert.Equal(t, "income", txns[1].Category)
	assert.True(t, txns[1].Imported)
	assert.Equal(t, "paycheck", txns[1].Description)
	assert.True(t, txns[1].Amount.Equal(dec("1000")))
}
