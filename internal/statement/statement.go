// Package statement loads bank statement files supplied to the CLI. The
// input format is JSON: statement metadata (period, balances) plus the
// bank-reported transactions.
//
// Dates accept either a bare calendar date ("2024-01-15") or RFC 3339;
// amounts are JSON strings to avoid float rounding on money.
package statement

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

// File is the on-disk statement document.
type File struct {
	AccountID    string        `json:"account_id"`
	StartDate    Date          `json:"start_date"`
	EndDate      Date          `json:"end_date"`
	StartBalance Amount        `json:"start_balance"`
	EndBalance   Amount        `json:"end_balance"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one bank-reported line of the statement.
type Transaction struct {
	Reference   string `json:"reference"`
	Amount      Amount `json:"amount"`
	Date        Date   `json:"date"`
	Description string `json:"description"`
}

// Date unmarshals "2006-01-02" or RFC 3339 timestamps.
type Date struct {
	time.Time
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d.Time = t.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// Amount unmarshals a decimal from a JSON string or number.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// Load reads and validates a statement file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engerrors.Validation(engerrors.CodeInvalidInput, "statement file", path, err.Error())
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, engerrors.Validation(engerrors.CodeInvalidInput, "statement file", path, err.Error())
	}

	if file.StartDate.IsZero() || file.EndDate.IsZero() {
		return nil, engerrors.Validation(engerrors.CodeInvalidInput, "statement period", path, "start and end dates are required")
	}
	if file.StartDate.After(file.EndDate.Time) {
		return nil, engerrors.Validation(engerrors.CodeInvalidInput, "statement period", path, "start date is after end date")
	}
	for i, tx := range file.Transactions {
		if tx.Date.IsZero() {
			return nil, engerrors.Validation(engerrors.CodeInvalidInput, "statement transaction", i, "date is required")
		}
	}
	return &file, nil
}

// ExternalTransactions converts the statement's lines to matcher input.
func (f *File) ExternalTransactions() []*models.ExternalTransaction {
	out := make([]*models.ExternalTransaction, 0, len(f.Transactions))
	for _, tx := range f.Transactions {
		out = append(out, &models.ExternalTransaction{
			Reference:   tx.Reference,
			Amount:      tx.Amount.Decimal,
			Date:        tx.Date.Time,
			Description: tx.Description,
		})
	}
	return out
}

// Session builds a fresh in-progress reconciliation session for the
// statement's period.
func (f *File) Session(userID string) *models.ReconciliationSession {
	return &models.ReconciliationSession{
		UserID:                userID,
		AccountID:             f.AccountID,
		StatementStartDate:    f.StartDate.Time,
		StatementEndDate:      f.EndDate.Time,
		StatementStartBalance: f.StartBalance.Decimal,
		StatementEndBalance:   f.EndBalance.Decimal,
		Status:                models.SessionInProgress,
		CreatedAt:             time.Now().UTC(),
	}
}
