package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

// SQLite is a Store backed by a SQLite database. Amounts are stored as
// decimal strings, dates as RFC 3339 strings. ReplaceItems and
// UpsertPattern run inside transactions so re-runs and concurrent detection
// passes cannot leave partial state.
type SQLite struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	account_id       TEXT NOT NULL DEFAULT '',
	amount           TEXT NOT NULL,
	date             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	category_id      TEXT,
	is_reconciled    INTEGER NOT NULL DEFAULT 0,
	needs_review     INTEGER NOT NULL DEFAULT 0,
	is_deleted       INTEGER NOT NULL DEFAULT 0,
	transfer_pair_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);

CREATE TABLE IF NOT EXISTS reconciliation_sessions (
	id                      TEXT PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	account_id              TEXT NOT NULL DEFAULT '',
	statement_start_date    TEXT NOT NULL,
	statement_end_date      TEXT NOT NULL,
	statement_start_balance TEXT NOT NULL DEFAULT '0',
	statement_end_balance   TEXT NOT NULL DEFAULT '0',
	calculated_balance      TEXT NOT NULL DEFAULT '0',
	status                  TEXT NOT NULL,
	created_at              TEXT NOT NULL,
	completed_at            TEXT
);

CREATE TABLE IF NOT EXISTS reconciliation_items (
	id                      TEXT PRIMARY KEY,
	session_id              TEXT NOT NULL REFERENCES reconciliation_sessions(id) ON DELETE CASCADE,
	type                    TEXT NOT NULL,
	internal_transaction_id TEXT,
	confidence              REAL NOT NULL DEFAULT 0,
	match_method            TEXT NOT NULL DEFAULT '',
	bank_reference          TEXT NOT NULL DEFAULT '',
	bank_description        TEXT NOT NULL DEFAULT '',
	bank_amount             TEXT NOT NULL DEFAULT '0',
	bank_date               TEXT,
	created_at              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_session ON reconciliation_items(session_id);

CREATE TABLE IF NOT EXISTS recurring_patterns (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	merchant_name      TEXT NOT NULL,
	merchant_key       TEXT NOT NULL,
	interval_days      INTEGER NOT NULL,
	average_amount     TEXT NOT NULL,
	confidence         REAL NOT NULL,
	status             TEXT NOT NULL,
	next_expected_date TEXT NOT NULL,
	last_observed_at   TEXT NOT NULL,
	occurrence_count   INTEGER NOT NULL DEFAULT 0,
	consecutive_misses INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	UNIQUE(user_id, merchant_key)
);

CREATE TABLE IF NOT EXISTS recurring_occurrences (
	id              TEXT PRIMARY KEY,
	pattern_id      TEXT NOT NULL REFERENCES recurring_patterns(id) ON DELETE CASCADE,
	status          TEXT NOT NULL,
	expected_date   TEXT NOT NULL,
	expected_amount TEXT NOT NULL,
	transaction_id  TEXT,
	actual_date     TEXT,
	actual_amount   TEXT,
	was_late        INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_occurrences_pattern ON recurring_occurrences(pattern_id);
CREATE INDEX IF NOT EXISTS idx_occurrences_transaction ON recurring_occurrences(transaction_id);
`

// OpenSQLite opens (creating if necessary) a SQLite store at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, engerrors.Storage("open database", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, engerrors.Storage("apply schema", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) InternalTransactionsByDateRange(ctx context.Context, userID string, accountID *string, start, end time.Time, excludeReconciled bool) ([]*models.InternalTransaction, error) {
	query := `SELECT id, user_id, account_id, amount, date, description, category_id,
		is_reconciled, needs_review, is_deleted, transfer_pair_id
		FROM transactions
		WHERE user_id = ? AND is_deleted = 0 AND date >= ? AND date <= ?`
	args := []interface{}{userID, formatTime(start), formatTime(end)}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	if excludeReconciled {
		query += ` AND is_reconciled = 0`
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engerrors.Storage("query transactions", err)
	}
	defer rows.Close()

	var out []*models.InternalTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLite) IsTransactionLinked(ctx context.Context, transactionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM recurring_occurrences WHERE transaction_id = ?`, transactionID).Scan(&count)
	if err != nil {
		return false, engerrors.Storage("query occurrence link", err)
	}
	return count > 0, nil
}

// CreateTransaction inserts an internal transaction. Used by import tooling
// and tests; not part of the engine-facing Store interface.
func (s *SQLite) CreateTransaction(ctx context.Context, tx *models.InternalTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, account_id, amount, date, description, category_id,
			is_reconciled, needs_review, is_deleted, transfer_pair_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.AccountID, tx.Amount.String(), formatTime(tx.Date), tx.Description,
		tx.CategoryID, boolToInt(tx.IsReconciled), boolToInt(tx.NeedsReview), boolToInt(tx.IsDeleted),
		tx.TransferPairID)
	if err != nil {
		return engerrors.Storage("insert transaction", err)
	}
	return nil
}

func (s *SQLite) Session(ctx context.Context, sessionID, userID string) (*models.ReconciliationSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, statement_start_date, statement_end_date,
			statement_start_balance, statement_end_balance, calculated_balance,
			status, created_at, completed_at
		 FROM reconciliation_sessions WHERE id = ? AND user_id = ?`, sessionID, userID)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, engerrors.NotFound(engerrors.CodeSessionNotFound, "reconciliation session", sessionID)
	}
	if err != nil {
		return nil, engerrors.Storage("query session", err)
	}
	return session, nil
}

// CreateSession inserts a reconciliation session.
func (s *SQLite) CreateSession(ctx context.Context, session *models.ReconciliationSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reconciliation_sessions (id, user_id, account_id, statement_start_date,
			statement_end_date, statement_start_balance, statement_end_balance,
			calculated_balance, status, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.AccountID,
		formatTime(session.StatementStartDate), formatTime(session.StatementEndDate),
		session.StatementStartBalance.String(), session.StatementEndBalance.String(),
		session.CalculatedBalance.String(), string(session.Status),
		formatTime(session.CreatedAt), formatTimePtr(session.CompletedAt))
	if err != nil {
		return engerrors.Storage("insert session", err)
	}
	return nil
}

func (s *SQLite) UpdateSession(ctx context.Context, session *models.ReconciliationSession) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reconciliation_sessions SET statement_start_balance = ?, statement_end_balance = ?,
			calculated_balance = ?, status = ?, completed_at = ?
		 WHERE id = ?`,
		session.StatementStartBalance.String(), session.StatementEndBalance.String(),
		session.CalculatedBalance.String(), string(session.Status),
		formatTimePtr(session.CompletedAt), session.ID)
	if err != nil {
		return engerrors.Storage("update session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engerrors.NotFound(engerrors.CodeSessionNotFound, "reconciliation session", session.ID)
	}
	return nil
}

func (s *SQLite) ReplaceItems(ctx context.Context, sessionID string, items []*models.ReconciliationItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engerrors.Storage("begin item replacement", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reconciliation_items WHERE session_id = ?`, sessionID); err != nil {
		return engerrors.Storage("delete items", err)
	}

	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reconciliation_items (id, session_id, type, internal_transaction_id,
				confidence, match_method, bank_reference, bank_description, bank_amount,
				bank_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, sessionID, string(item.Type), item.InternalTransactionID,
			item.Confidence, item.MatchMethod, item.BankReference, item.BankDescription,
			item.BankAmount.String(), formatTime(item.BankDate), formatTime(item.CreatedAt))
		if err != nil {
			return engerrors.Storage("insert item", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return engerrors.Storage("commit item replacement", err)
	}
	return nil
}

func (s *SQLite) Items(ctx context.Context, sessionID string) ([]*models.ReconciliationItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, type, internal_transaction_id, confidence, match_method,
			bank_reference, bank_description, bank_amount, bank_date, created_at
		 FROM reconciliation_items WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, engerrors.Storage("query items", err)
	}
	defer rows.Close()

	var out []*models.ReconciliationItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const patternColumns = `id, user_id, merchant_name, merchant_key, interval_days, average_amount,
	confidence, status, next_expected_date, last_observed_at, occurrence_count,
	consecutive_misses, created_at, updated_at`

func (s *SQLite) ActivePatterns(ctx context.Context, userID string) ([]*models.RecurringPattern, error) {
	return s.queryPatterns(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns
		 WHERE user_id = ? AND status = ? ORDER BY id`,
		userID, string(models.PatternActive))
}

func (s *SQLite) PastDuePatterns(ctx context.Context, userID string, asOf time.Time) ([]*models.RecurringPattern, error) {
	return s.queryPatterns(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns
		 WHERE user_id = ? AND status = ? AND next_expected_date < ? ORDER BY id`,
		userID, string(models.PatternActive), formatTime(asOf))
}

func (s *SQLite) UpcomingPatterns(ctx context.Context, userID string, start, end time.Time) ([]*models.RecurringPattern, error) {
	return s.queryPatterns(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns
		 WHERE user_id = ? AND status = ? AND next_expected_date >= ? AND next_expected_date <= ?
		 ORDER BY next_expected_date, id`,
		userID, string(models.PatternActive), formatTime(start), formatTime(end))
}

func (s *SQLite) UpsertPattern(ctx context.Context, pattern *models.RecurringPattern) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engerrors.Storage("begin pattern upsert", err)
	}
	defer tx.Rollback()

	var existingID string
	var createdAt string
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM recurring_patterns WHERE user_id = ? AND merchant_key = ?`,
		pattern.UserID, pattern.MerchantKey).Scan(&existingID, &createdAt)

	switch {
	case err == sql.ErrNoRows:
		if pattern.ID == "" {
			pattern.ID = uuid.NewString()
		}
		if pattern.CreatedAt.IsZero() {
			pattern.CreatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recurring_patterns (`+patternColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pattern.ID, pattern.UserID, pattern.MerchantName, pattern.MerchantKey,
			pattern.IntervalDays, pattern.AverageAmount.String(), pattern.Confidence,
			string(pattern.Status), formatTime(pattern.NextExpectedDate),
			formatTime(pattern.LastObservedAt), pattern.OccurrenceCount,
			pattern.ConsecutiveMisses, formatTime(pattern.CreatedAt), formatTime(pattern.UpdatedAt))
		if err != nil {
			return engerrors.Storage("insert pattern", err)
		}
	case err != nil:
		return engerrors.Storage("query pattern by key", err)
	default:
		pattern.ID = existingID
		if t, perr := parseTime(createdAt); perr == nil {
			pattern.CreatedAt = t
		}
		if err := execUpdatePattern(ctx, tx, pattern); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return engerrors.Storage("commit pattern upsert", err)
	}
	return nil
}

func (s *SQLite) UpdatePattern(ctx context.Context, pattern *models.RecurringPattern) error {
	return execUpdatePattern(ctx, s.db, pattern)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func execUpdatePattern(ctx context.Context, db execer, pattern *models.RecurringPattern) error {
	res, err := db.ExecContext(ctx,
		`UPDATE recurring_patterns SET merchant_name = ?, interval_days = ?, average_amount = ?,
			confidence = ?, status = ?, next_expected_date = ?, last_observed_at = ?,
			occurrence_count = ?, consecutive_misses = ?, updated_at = ?
		 WHERE id = ?`,
		pattern.MerchantName, pattern.IntervalDays, pattern.AverageAmount.String(),
		pattern.Confidence, string(pattern.Status), formatTime(pattern.NextExpectedDate),
		formatTime(pattern.LastObservedAt), pattern.OccurrenceCount,
		pattern.ConsecutiveMisses, formatTime(time.Now().UTC()), pattern.ID)
	if err != nil {
		return engerrors.Storage("update pattern", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engerrors.NotFound(engerrors.CodePatternNotFound, "recurring pattern", pattern.ID)
	}
	return nil
}

func (s *SQLite) CreateOccurrence(ctx context.Context, occurrence *models.RecurringOccurrence) error {
	if occurrence.ID == "" {
		occurrence.ID = uuid.NewString()
	}
	if occurrence.CreatedAt.IsZero() {
		occurrence.CreatedAt = time.Now().UTC()
	}
	var actualAmount *string
	if occurrence.ActualAmount != nil {
		s := occurrence.ActualAmount.String()
		actualAmount = &s
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_occurrences (id, pattern_id, status, expected_date,
			expected_amount, transaction_id, actual_date, actual_amount, was_late, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		occurrence.ID, occurrence.PatternID, string(occurrence.Status),
		formatTime(occurrence.ExpectedDate), occurrence.ExpectedAmount.String(),
		occurrence.TransactionID, formatTimePtr(occurrence.ActualDate), actualAmount,
		boolToInt(occurrence.WasLate), formatTime(occurrence.CreatedAt))
	if err != nil {
		return engerrors.Storage("insert occurrence", err)
	}
	return nil
}

func (s *SQLite) Occurrences(ctx context.Context, patternID string) ([]*models.RecurringOccurrence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern_id, status, expected_date, expected_amount, transaction_id,
			actual_date, actual_amount, was_late, created_at
		 FROM recurring_occurrences WHERE pattern_id = ? ORDER BY expected_date, id`, patternID)
	if err != nil {
		return nil, engerrors.Storage("query occurrences", err)
	}
	defer rows.Close()

	var out []*models.RecurringOccurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, rows.Err()
}

func (s *SQLite) queryPatterns(ctx context.Context, query string, args ...interface{}) ([]*models.RecurringPattern, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engerrors.Storage("query patterns", err)
	}
	defer rows.Close()

	var out []*models.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Row scanning helpers. A scanner is satisfied by *sql.Row and *sql.Rows.

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (*models.InternalTransaction, error) {
	var tx models.InternalTransaction
	var amount, date string
	var isReconciled, needsReview, isDeleted int
	err := row.Scan(&tx.ID, &tx.UserID, &tx.AccountID, &amount, &date, &tx.Description,
		&tx.CategoryID, &isReconciled, &needsReview, &isDeleted, &tx.TransferPairID)
	if err != nil {
		return nil, engerrors.Storage("scan transaction", err)
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, engerrors.Storage("parse transaction amount", err)
	}
	if tx.Date, err = parseTime(date); err != nil {
		return nil, engerrors.Storage("parse transaction date", err)
	}
	tx.IsReconciled = isReconciled != 0
	tx.NeedsReview = needsReview != 0
	tx.IsDeleted = isDeleted != 0
	return &tx, nil
}

func scanSession(row scanner) (*models.ReconciliationSession, error) {
	var s models.ReconciliationSession
	var startDate, endDate, startBal, endBal, calcBal, status, createdAt string
	var completedAt *string
	err := row.Scan(&s.ID, &s.UserID, &s.AccountID, &startDate, &endDate,
		&startBal, &endBal, &calcBal, &status, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if s.StatementStartDate, err = parseTime(startDate); err != nil {
		return nil, engerrors.Storage("parse session start date", err)
	}
	if s.StatementEndDate, err = parseTime(endDate); err != nil {
		return nil, engerrors.Storage("parse session end date", err)
	}
	if s.StatementStartBalance, err = decimal.NewFromString(startBal); err != nil {
		return nil, engerrors.Storage("parse session start balance", err)
	}
	if s.StatementEndBalance, err = decimal.NewFromString(endBal); err != nil {
		return nil, engerrors.Storage("parse session end balance", err)
	}
	if s.CalculatedBalance, err = decimal.NewFromString(calcBal); err != nil {
		return nil, engerrors.Storage("parse session calculated balance", err)
	}
	s.Status = models.SessionStatus(status)
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, engerrors.Storage("parse session created at", err)
	}
	if completedAt != nil {
		t, err := parseTime(*completedAt)
		if err != nil {
			return nil, engerrors.Storage("parse session completed at", err)
		}
		s.CompletedAt = &t
	}
	return &s, nil
}

func scanItem(row scanner) (*models.ReconciliationItem, error) {
	var item models.ReconciliationItem
	var itemType, bankAmount, bankDate, createdAt string
	err := row.Scan(&item.ID, &item.SessionID, &itemType, &item.InternalTransactionID,
		&item.Confidence, &item.MatchMethod, &item.BankReference, &item.BankDescription,
		&bankAmount, &bankDate, &createdAt)
	if err != nil {
		return nil, engerrors.Storage("scan item", err)
	}
	item.Type = models.ItemType(itemType)
	if item.BankAmount, err = decimal.NewFromString(bankAmount); err != nil {
		return nil, engerrors.Storage("parse item bank amount", err)
	}
	if item.BankDate, err = parseTime(bankDate); err != nil {
		return nil, engerrors.Storage("parse item bank date", err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, engerrors.Storage("parse item created at", err)
	}
	return &item, nil
}

func scanPattern(row scanner) (*models.RecurringPattern, error) {
	var p models.RecurringPattern
	var avgAmount, status, nextExpected, lastObserved, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.UserID, &p.MerchantName, &p.MerchantKey, &p.IntervalDays,
		&avgAmount, &p.Confidence, &status, &nextExpected, &lastObserved,
		&p.OccurrenceCount, &p.ConsecutiveMisses, &createdAt, &updatedAt)
	if err != nil {
		return nil, engerrors.Storage("scan pattern", err)
	}
	if p.AverageAmount, err = decimal.NewFromString(avgAmount); err != nil {
		return nil, engerrors.Storage("parse pattern average amount", err)
	}
	p.Status = models.PatternStatus(status)
	if p.NextExpectedDate, err = parseTime(nextExpected); err != nil {
		return nil, engerrors.Storage("parse pattern next expected date", err)
	}
	if p.LastObservedAt, err = parseTime(lastObserved); err != nil {
		return nil, engerrors.Storage("parse pattern last observed at", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, engerrors.Storage("parse pattern created at", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, engerrors.Storage("parse pattern updated at", err)
	}
	return &p, nil
}

func scanOccurrence(row scanner) (*models.RecurringOccurrence, error) {
	var occ models.RecurringOccurrence
	var status, expectedDate, expectedAmount, createdAt string
	var actualDate, actualAmount *string
	var wasLate int
	err := row.Scan(&occ.ID, &occ.PatternID, &status, &expectedDate, &expectedAmount,
		&occ.TransactionID, &actualDate, &actualAmount, &wasLate, &createdAt)
	if err != nil {
		return nil, engerrors.Storage("scan occurrence", err)
	}
	occ.Status = models.OccurrenceStatus(status)
	if occ.ExpectedDate, err = parseTime(expectedDate); err != nil {
		return nil, engerrors.Storage("parse occurrence expected date", err)
	}
	if occ.ExpectedAmount, err = decimal.NewFromString(expectedAmount); err != nil {
		return nil, engerrors.Storage("parse occurrence expected amount", err)
	}
	if actualDate != nil {
		t, err := parseTime(*actualDate)
		if err != nil {
			return nil, engerrors.Storage("parse occurrence actual date", err)
		}
		occ.ActualDate = &t
	}
	if actualAmount != nil {
		d, err := decimal.NewFromString(*actualAmount)
		if err != nil {
			return nil, engerrors.Storage("parse occurrence actual amount", err)
		}
		occ.ActualAmount = &d
	}
	occ.WasLate = wasLate != 0
	if occ.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, engerrors.Storage("parse occurrence created at", err)
	}
	return &occ, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
