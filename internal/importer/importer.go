// Package importer parses transaction CSV files and feeds them into
// the ledger store.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

// ErrMalformedInput is returned when a CSV is missing required columns
// or contains a value that cannot be parsed. Any such error aborts the
// whole parse; no rows from a malformed file are accepted.
var ErrMalformedInput = errors.New("malformed import input")

// Record is one normalized row of an import file.
type Record struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Category    string
}

// Accepted date layouts, tried in order.
var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// Parse reads a CSV with a header row. Column names match
// case-insensitively after trimming; `date` and `amount` are required,
// `description` and `category` default to empty when absent.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV: %v", ErrMalformedInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: CSV is empty", ErrMalformedInput)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, hasDate := cols["date"]
	amountCol, hasAmount := cols["amount"]
	if !hasDate || !hasAmount {
		return nil, fmt.Errorf("%w: CSV must contain at least 'date' and 'amount' columns", ErrMalformedInput)
	}
	descCol, hasDesc := cols["description"]
	categoryCol, hasCategory := cols["category"]

	var records []Record
	for i, row := range rows[1:] {
		rec, err := parseRow(row, dateCol, amountCol)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedInput, i+2, err)
		}
		if hasDesc {
			rec.Description = field(row, descCol)
		}
		if hasCategory {
			rec.Category = field(row, categoryCol)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, dateCol, amountCol int) (Record, error) {
	date, err := parseDate(field(row, dateCol))
	if err != nil {
		return Record{}, err
	}
	raw := strings.TrimSpace(field(row, amountCol))
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return Record{}, fmt.Errorf("parsing amount %q: %v", raw, err)
	}
	return Record{Date: date, Amount: amount}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

func field(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

// Ledger is the slice of the store the importer writes through.
type Ledger interface {
	CreateTransaction(params store.TransactionParams) (model.Transaction, error)
}

// Importer records parsed CSV rows as imported transactions.
type Importer struct {
	ledger Ledger
}

// NewImporter creates an Importer backed by a ledger store.
func NewImporter(ledger Ledger) *Importer {
	return &Importer{ledger: ledger}
}

// Import records each parsed row against the given account, flagged as
// imported, in file order. Rows commit independently: a failure partway
// through leaves earlier rows persisted, and the returned slice holds
// exactly the transactions that were recorded.
func (im *Importer) Import(userID, accountID int, records []Record) ([]model.Transaction, error) {
	var created []model.Transaction
	for i, rec := range records {
		txn, err := im.ledger.CreateTransaction(store.TransactionParams{
			UserID:      userID,
			AccountID:   accountID,
			Amount:      rec.Amount,
			Date:        rec.Date,
			Description: rec.Description,
			Category:    rec.Category,
			Imported:    true,
		})
		if err != nil {
			return created, fmt.Errorf("importing row %d: %w", i+1, err)
		}
		created = append(created, txn)
	}
	return created, nil
}
