package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteTransactionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	categoryID := "cat-1"
	tx := &models.InternalTransaction{
		UserID:      "u1",
		AccountID:   "a1",
		Amount:      decimal.NewFromFloat(-15.99),
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Description: "NETFLIX.COM",
		CategoryID:  &categoryID,
	}
	if err := db.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows, err := db.InternalTransactionsByDateRange(ctx, "u1", nil, start, end, false)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	got := rows[0]
	if !got.Amount.Equal(tx.Amount) {
		t.Errorf("amount round trip: %s vs %s", got.Amount, tx.Amount)
	}
	if !got.Date.Equal(tx.Date) {
		t.Errorf("date round trip: %s vs %s", got.Date, tx.Date)
	}
	if got.CategoryID == nil || *got.CategoryID != categoryID {
		t.Error("category id lost in round trip")
	}

	// Account filtering.
	other := "a2"
	rows, err = db.InternalTransactionsByDateRange(ctx, "u1", &other, start, end, false)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows for other account, got %d", len(rows))
	}
}

func TestSQLiteSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	session := &models.ReconciliationSession{
		UserID:                "u1",
		AccountID:             "a1",
		StatementStartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		StatementEndDate:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		StatementStartBalance: decimal.NewFromFloat(1000),
		StatementEndBalance:   decimal.NewFromFloat(900),
		CalculatedBalance:     decimal.Zero,
		Status:                models.SessionInProgress,
	}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if _, err := db.Session(ctx, session.ID, "u2"); !engerrors.IsNotFound(err) {
		t.Errorf("expected not-found for other user, got %v", err)
	}

	session.CalculatedBalance = decimal.NewFromFloat(901.50)
	session.Status = models.SessionCompleted
	completedAt := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	session.CompletedAt = &completedAt
	if err := db.UpdateSession(ctx, session); err != nil {
		t.Fatalf("update error: %v", err)
	}

	got, err := db.Session(ctx, session.ID, "u1")
	if err != nil {
		t.Fatalf("lookup error: %v", err)
	}
	if got.Status != models.SessionCompleted {
		t.Errorf("status not persisted: %s", got.Status)
	}
	if !got.CalculatedBalance.Equal(decimal.NewFromFloat(901.50)) {
		t.Errorf("balance not persisted: %s", got.CalculatedBalance)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Error("completed-at not persisted")
	}
}

func TestSQLiteReplaceItems(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	session := &models.ReconciliationSession{
		UserID:             "u1",
		StatementStartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		StatementEndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:             models.SessionInProgress,
	}
	if err := db.CreateSession(ctx, session); err != nil {
		t.Fatalf("create error: %v", err)
	}

	txID := "t1"
	first := []*models.ReconciliationItem{
		{SessionID: session.ID, Type: models.ItemMatched, InternalTransactionID: &txID,
			Confidence: 1.0, MatchMethod: "Exact",
			BankAmount: decimal.NewFromFloat(-10), BankDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{SessionID: session.ID, Type: models.ItemUnmatchedBank,
			BankAmount: decimal.NewFromFloat(-20), BankDate: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
	if err := db.ReplaceItems(ctx, session.ID, first); err != nil {
		t.Fatalf("replace error: %v", err)
	}

	second := []*models.ReconciliationItem{
		{SessionID: session.ID, Type: models.ItemUnmatchedInternal, InternalTransactionID: &txID,
			BankDate: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)},
	}
	if err := db.ReplaceItems(ctx, session.ID, second); err != nil {
		t.Fatalf("replace error: %v", err)
	}

	items, err := db.Items(ctx, session.ID)
	if err != nil {
		t.Fatalf("items error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected replacement to supersede prior items, got %d", len(items))
	}
	if items[0].Type != models.ItemUnmatchedInternal {
		t.Errorf("unexpected item type: %s", items[0].Type)
	}
}

func TestSQLitePatternQueriesAndUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	pattern := &models.RecurringPattern{
		UserID:           "u1",
		MerchantName:     "Netflix.com",
		MerchantKey:      "netflix.com",
		IntervalDays:     30,
		AverageAmount:    decimal.NewFromFloat(15.99),
		Confidence:       0.9,
		Status:           models.PatternActive,
		NextExpectedDate: now.AddDate(0, 0, -1),
		LastObservedAt:   now.AddDate(0, 0, -31),
	}
	if err := db.UpsertPattern(ctx, pattern); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	firstID := pattern.ID

	pastDue, err := db.PastDuePatterns(ctx, "u1", now)
	if err != nil {
		t.Fatalf("past-due query error: %v", err)
	}
	if len(pastDue) != 1 {
		t.Fatalf("expected 1 past-due pattern, got %d", len(pastDue))
	}

	// Re-upsert by key keeps the row.
	refreshed := &models.RecurringPattern{
		UserID:           "u1",
		MerchantName:     "Netflix.com",
		MerchantKey:      "netflix.com",
		IntervalDays:     30,
		AverageAmount:    decimal.NewFromFloat(16.99),
		Confidence:       0.92,
		Status:           models.PatternActive,
		NextExpectedDate: now.AddDate(0, 0, 4),
		LastObservedAt:   now.AddDate(0, 0, -26),
	}
	if err := db.UpsertPattern(ctx, refreshed); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	if refreshed.ID != firstID {
		t.Errorf("upsert by key must preserve id: %s vs %s", refreshed.ID, firstID)
	}

	upcoming, err := db.UpcomingPatterns(ctx, "u1", now, now.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("upcoming query error: %v", err)
	}
	if len(upcoming) != 1 {
		t.Fatalf("expected 1 upcoming pattern, got %d", len(upcoming))
	}
	if !upcoming[0].AverageAmount.Equal(decimal.NewFromFloat(16.99)) {
		t.Errorf("expected refreshed amount, got %s", upcoming[0].AverageAmount)
	}
}

func TestSQLiteOccurrenceLinking(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	pattern := &models.RecurringPattern{
		UserID:           "u1",
		MerchantKey:      "netflix.com",
		IntervalDays:     30,
		AverageAmount:    decimal.NewFromFloat(15.99),
		Status:           models.PatternActive,
		NextExpectedDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		LastObservedAt:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.UpsertPattern(ctx, pattern); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	txID := "t1"
	actualDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	actualAmount := decimal.NewFromFloat(15.99)
	if err := db.CreateOccurrence(ctx, &models.RecurringOccurrence{
		PatternID:      pattern.ID,
		Status:         models.OccurrencePosted,
		ExpectedDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ExpectedAmount: decimal.NewFromFloat(15.99),
		TransactionID:  &txID,
		ActualDate:     &actualDate,
		ActualAmount:   &actualAmount,
	}); err != nil {
		t.Fatalf("create occurrence error: %v", err)
	}

	linked, err := db.IsTransactionLinked(ctx, "t1")
	if err != nil {
		t.Fatalf("link check error: %v", err)
	}
	if !linked {
		t.Error("expected transaction to be linked")
	}

	occurrences, err := db.Occurrences(ctx, pattern.ID)
	if err != nil {
		t.Fatalf("occurrences error: %v", err)
	}
	if len(occurrences) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occurrences))
	}
	occ := occurrences[0]
	if occ.ActualAmount == nil || !occ.ActualAmount.Equal(actualAmount) {
		t.Error("actual amount lost in round trip")
	}
	if occ.TransactionID == nil || *occ.TransactionID != "t1" {
		t.Error("transaction id lost in round trip")
	}
}
