package importer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse(t *testing.T) {
	csv := "date,amount,description,category\n" +
		"2024-01-01,-12.50,coffee,food\n" +
		"2024-01-02,1000,paycheck,income\n"

	records, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "-12.50", records[0].Amount.StringFixed(2))
	assert.Equal(t, "coffee", records[0].Description)
	assert.Equal(t, "food", records[0].Category)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), records[0].Date)

	assert.Equal(t, "1000.00", records[1].Amount.StringFixed(2))
	assert.Equal(t, "paycheck", records[1].Description)
	assert.Equal(t, "income", records[1].Category)
}

func TestParse_HeaderMatchingIsLenient(t *testing.T) {
	csv := " Date , AMOUNT \n01/15/2024, 42.00 \n"

	records, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "42.00", records[0].Amount.StringFixed(2))
	assert.Equal(t, 15, records[0].Date.Day())
	assert.Empty(t, records[0].Description)
	assert.Empty(t, records[0].Category)
}

func TestParse_MissingAmountColumn(t *testing.T) {
	csv := "date,description\n2024-01-01,coffee\n"

	_, err := Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.ErrorContains(t, err, "'date' and 'amount'")
}

func TestParse_MissingDateColumn(t *testing.T) {
	csv := "amount,description\n-12.50,coffee\n"

	_, err := Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParse_UnparsableDateFailsWholeImport(t *testing.T) {
	csv := "date,amount\n2024-01-01,1\nyesterday,2\n2024-01-03,3\n"

	records, err := Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.ErrorContains(t, err, "row 3")
	assert.Nil(t, records)
}

func TestParse_UnparsableAmount(t *testing.T) {
	csv := "date,amount\n2024-01-01,twelve\n"

	_, err := Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// recordingLedger captures created transactions and can fail on demand.
type recordingLedger struct {
	created []store.TransactionParams
	failAt  int // fail the nth call (1-based), 0 = never
}

func (l *recordingLedger) CreateTransaction(params store.TransactionParams) (model.Transaction, error) {
	if l.failAt > 0 && len(l.created)+1 == l.failAt {
		return model.Transaction{}, errors.New("storage fault")
	}
	l.created = append(l.created, params)
	return model.Transaction{
		ID:        len(l.created),
		UserID:    params.UserID,
		AccountID: params.AccountID,
		Amount:    params.Amount,
		Date:      params.Date,
		Imported:  params.Imported,
	}, nil
}

func TestImport_FlagsRowsAsImported(t *testing.T) {
	ledger := &recordingLedger{}
	records := []Record{
		{Date: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Amount: dec("-12.50"), Description: "coffee", Category: "food"},
		{Date: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), Amount: dec("1000"), Description: "paycheck"},
	}

	created, err := NewImporter(ledger).Import(7, 3, records)
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, params := range ledger.created {
		assert.Equal(t, 7, params.UserID)
		assert.Equal(t, 3, params.AccountID)
		assert.True(t, params.Imported)
	}
	assert.Equal(t, "coffee", ledger.created[0].Description)
	assert.Equal(t, "food", ledger.created[0].Category)
}

func TestImport_PartialFailureKeepsEarlierRows(t *testing.T) {
	ledger := &recordingLedger{failAt: 3}
	records := []Record{
		{Amount: dec("1")}, {Amount: dec("2")}, {Amount: dec("3")}, {Amount: dec("4")},
	}

	created, err := NewImporter(ledger).Import(1, 1, records)
	require.Error(t, err)
	assert.ErrorContains(t, err, "row 3")

	// Rows commit independently: the first two stay applied, nothing
	// after the failure runs.
	assert.Len(t, created, 2)
	assert.Len(t, ledger.created, 2)
}

func TestImport_AgainstRealStore(t *testing.T) {
	st := newTestStore(t)
	user, err := st.CreateUser("alice@example.com", "hash")
	require.NoError(t, err)
	account, err := st.CreateAccount(user.ID, "Checking", model.AccountTypeChecking, decimal.Zero)
	require.NoError(t, err)

	csv := "date,amount,description\n" +
		"2024-01-01,-12.50,coffee\n" +
		"2024-01-02,1000,paycheck\n" +
		"2024-01-03,-0.01,fee\n"
	records, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)

	created, err := NewImporter(st).Import(user.ID, account.ID, records)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	total, err := st.NetWorth(user.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("987.49")), "got %s", total)

	txns, err := st.ListTransactions(user.ID, 0)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	for _, txn := range txns {
		assert.True(t, txn.Imported)
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir() + "/tally.db")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
