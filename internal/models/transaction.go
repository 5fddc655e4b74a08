// Package models defines the domain entities of the matching and
// recurring-detection engine: transactions, reconciliation sessions and
// their items, recurring patterns and their occurrences.
//
// All monetary values use decimal.Decimal. Amounts are signed: negative
// amounts are expenses, positive amounts are income. Every entity is scoped
// by user id; the engine never crosses user boundaries.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InternalTransaction is a transaction recorded in the user's own ledger,
// created by import or manual entry. Immutable once reconciled except for
// category and review metadata.
type InternalTransaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	AccountID    string          `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	CategoryID   *string         `json:"category_id,omitempty"`
	IsReconciled bool            `json:"is_reconciled"`
	NeedsReview  bool            `json:"needs_review"`
	IsDeleted    bool            `json:"is_deleted"`
	// TransferPairID links the two legs of an internal transfer. Transfers
	// are excluded from recurring detection and pattern matching.
	TransferPairID *string `json:"transfer_pair_id,omitempty"`
}

// IsExpense reports whether the transaction is an expense (negative amount).
func (t *InternalTransaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsTransfer reports whether the transaction is one leg of a transfer.
func (t *InternalTransaction) IsTransfer() bool {
	return t.TransferPairID != nil
}

// AbsoluteAmount returns the unsigned amount.
func (t *InternalTransaction) AbsoluteAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// Validate performs basic validation on the transaction.
func (t *InternalTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("transaction user id cannot be empty")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	return nil
}

// String returns a compact representation for logs.
func (t *InternalTransaction) String() string {
	return fmt.Sprintf("InternalTransaction{ID: %s, Amount: %s, Date: %s}",
		t.ID, t.Amount.String(), t.Date.Format("2006-01-02"))
}

// ExternalTransaction is a bank-reported transaction: ephemeral input to a
// reconciliation run. It is never persisted as its own entity; unmatched
// externals survive only as a snapshot on the reconciliation item.
type ExternalTransaction struct {
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
}

// Validate performs basic validation on the external transaction.
func (e *ExternalTransaction) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("external transaction date cannot be zero")
	}
	return nil
}

// String returns a compact representation for logs.
func (e *ExternalTransaction) String() string {
	return fmt.Sprintf("ExternalTransaction{Ref: %s, Amount: %s, Date: %s}",
		e.Reference, e.Amount.String(), e.Date.Format("2006-01-02"))
}

// SameCalendarDay reports whether two timestamps fall on the same calendar
// date, ignoring time of day.
func SameCalendarDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// DayDistance returns the absolute distance between two dates in whole
// calendar days, ignoring time of day.
func DayDistance(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := ad.Sub(bd)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
