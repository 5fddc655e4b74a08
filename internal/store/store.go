// Package store defines the persistence boundary consumed by the matching
// and recurring-detection engine, plus two implementations: an in-memory
// store used by tests and a SQLite store used by the CLI.
//
// The engine treats these interfaces as external collaborators: all of its
// blocking happens here. Implementations must keep two operations atomic:
// replacing a session's reconciliation items (delete-all-then-insert as one
// unit) and upserting a pattern by (user, merchant key).
package store

import (
	"context"
	"time"

	"github.com/digaomatias/mymascada-sub011/internal/models"
)

// TransactionReader provides read access to internal transactions.
type TransactionReader interface {
	// InternalTransactionsByDateRange returns the user's non-deleted
	// transactions within [start, end], ordered ascending by date. A nil
	// accountID means all accounts. When excludeReconciled is set,
	// transactions already reconciled are omitted.
	InternalTransactionsByDateRange(ctx context.Context, userID string, accountID *string, start, end time.Time, excludeReconciled bool) ([]*models.InternalTransaction, error)

	// IsTransactionLinked reports whether a transaction is already tied to
	// a recurring occurrence.
	IsTransactionLinked(ctx context.Context, transactionID string) (bool, error)
}

// SessionStore provides access to reconciliation sessions and their items.
type SessionStore interface {
	// Session returns the session by id, scoped to the user. A session that
	// exists but belongs to another user is reported as not found.
	Session(ctx context.Context, sessionID, userID string) (*models.ReconciliationSession, error)

	// UpdateSession persists session field changes.
	UpdateSession(ctx context.Context, session *models.ReconciliationSession) error

	// ReplaceItems atomically deletes all of the session's reconciliation
	// items and inserts the given set. Concurrent replacements for the same
	// session must not interleave.
	ReplaceItems(ctx context.Context, sessionID string, items []*models.ReconciliationItem) error

	// Items returns the session's current reconciliation items.
	Items(ctx context.Context, sessionID string) ([]*models.ReconciliationItem, error)
}

// PatternStore provides access to recurring patterns and occurrences.
type PatternStore interface {
	// ActivePatterns returns the user's active patterns ordered by id, so
	// that first-match-wins arrival matching is deterministic.
	ActivePatterns(ctx context.Context, userID string) ([]*models.RecurringPattern, error)

	// PastDuePatterns returns active patterns whose next expected date is
	// before asOf, ordered by id.
	PastDuePatterns(ctx context.Context, userID string, asOf time.Time) ([]*models.RecurringPattern, error)

	// UpcomingPatterns returns active patterns expected within [start, end],
	// ordered by next expected date.
	UpcomingPatterns(ctx context.Context, userID string, start, end time.Time) ([]*models.RecurringPattern, error)

	// UpsertPattern creates the pattern or, when one already exists for
	// (user, merchant key), updates it in place preserving its id and
	// created-at. Atomic per (user, merchant key).
	UpsertPattern(ctx context.Context, pattern *models.RecurringPattern) error

	// UpdatePattern persists changes to an existing pattern.
	UpdatePattern(ctx context.Context, pattern *models.RecurringPattern) error

	// CreateOccurrence appends an occurrence to a pattern's history.
	CreateOccurrence(ctx context.Context, occurrence *models.RecurringOccurrence) error

	// Occurrences returns a pattern's occurrences ordered by expected date.
	Occurrences(ctx context.Context, patternID string) ([]*models.RecurringOccurrence, error)
}

// Store aggregates the full persistence surface the engine consumes.
type Store interface {
	TransactionReader
	SessionStore
	PatternStore
}
