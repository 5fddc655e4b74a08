package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a reconciliation session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// IsValid checks if the session status is a known value.
func (s SessionStatus) IsValid() bool {
	return s == SessionInProgress || s == SessionCompleted || s == SessionCancelled
}

// BalanceTolerance is the maximum absolute difference between the statement
// end balance and the calculated balance for a session to count as balanced.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// ReconciliationSession identifies one statement period being reconciled.
// Its items are replaced wholesale on every matching re-run.
type ReconciliationSession struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id"`
	AccountID             string          `json:"account_id"`
	StatementStartDate    time.Time       `json:"statement_start_date"`
	StatementEndDate      time.Time       `json:"statement_end_date"`
	StatementStartBalance decimal.Decimal `json:"statement_start_balance"`
	StatementEndBalance   decimal.Decimal `json:"statement_end_balance"`
	CalculatedBalance     decimal.Decimal `json:"calculated_balance"`
	Status                SessionStatus   `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
}

// BalanceDifference returns statementEndBalance - calculatedBalance.
func (s *ReconciliationSession) BalanceDifference() decimal.Decimal {
	return s.StatementEndBalance.Sub(s.CalculatedBalance)
}

// IsBalanced reports whether the session balances within tolerance.
func (s *ReconciliationSession) IsBalanced() bool {
	return s.BalanceDifference().Abs().LessThanOrEqual(BalanceTolerance)
}

// Validate performs basic validation on the session.
func (s *ReconciliationSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if s.UserID == "" {
		return fmt.Errorf("session user id cannot be empty")
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("invalid session status: %s", s.Status)
	}
	if s.StatementStartDate.After(s.StatementEndDate) {
		return fmt.Errorf("statement start date must not be after end date")
	}
	return nil
}

// ItemType classifies a reconciliation item.
type ItemType string

const (
	// ItemMatched records a pairing of an internal and an external
	// transaction, with confidence and match method.
	ItemMatched ItemType = "matched"
	// ItemUnmatchedInternal records an internal transaction the bank did
	// not report (a.k.a. unmatched app).
	ItemUnmatchedInternal ItemType = "unmatched_internal"
	// ItemUnmatchedBank records a bank transaction with no internal
	// counterpart; it carries a snapshot of the bank data since there is
	// no internal row to point to.
	ItemUnmatchedBank ItemType = "unmatched_bank"
)

// ReconciliationItem tags one matching outcome within a session. Items are
// created in bulk by a matching run and never mutated; a re-run supersedes
// them by deletion and re-creation.
type ReconciliationItem struct {
	ID        string   `json:"id"`
	SessionID string   `json:"session_id"`
	Type      ItemType `json:"type"`

	// Set for matched and unmatched-internal items.
	InternalTransactionID *string `json:"internal_transaction_id,omitempty"`

	// Set for matched items only.
	Confidence  float64 `json:"confidence,omitempty"`
	MatchMethod string  `json:"match_method,omitempty"`

	// Bank snapshot, set for matched and unmatched-bank items.
	BankReference   string          `json:"bank_reference,omitempty"`
	BankDescription string          `json:"bank_description,omitempty"`
	BankAmount      decimal.Decimal `json:"bank_amount,omitempty"`
	BankDate        time.Time       `json:"bank_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
