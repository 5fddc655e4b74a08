package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	"github.com/digaomatias/mymascada-sub011/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func seedExpense(t *testing.T, db *store.Memory, userID string, amount float64, day time.Time, description string) {
	t.Helper()
	db.AddTransaction(&models.InternalTransaction{
		UserID:      userID,
		Amount:      decimal.NewFromFloat(amount),
		Date:        day,
		Description: description,
	})
}

func newTestDetector(db *store.Memory) *Detector {
	detector := NewDetector(db, DefaultDetectorConfig(), nil)
	detector.now = fixedNow
	return detector
}

func TestDetectMonthlyPattern(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	// Five charges spaced 30/31/29/30 days apart.
	offsets := []int{0, 30, 61, 90, 120}
	for _, offset := range offsets {
		seedExpense(t, db, "u1", -15.99, base.AddDate(0, 0, offset), "NETFLIX.COM")
	}

	detector := newTestDetector(db)
	count, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	patterns, err := db.ActivePatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	pattern := patterns[0]
	require.Equal(t, "netflix.com", pattern.MerchantKey)
	require.Equal(t, "Monthly", pattern.IntervalName())
	require.Equal(t, 30, pattern.IntervalDays)
	require.True(t, pattern.AverageAmount.Equal(decimal.NewFromFloat(15.99)),
		"average amount %s", pattern.AverageAmount)
	require.GreaterOrEqual(t, pattern.Confidence, 0.9)
	require.LessOrEqual(t, pattern.Confidence, 1.0)
	require.Equal(t, 5, pattern.OccurrenceCount)
	require.Equal(t, models.PatternActive, pattern.Status)

	lastCharge := base.AddDate(0, 0, 120)
	require.True(t, pattern.NextExpectedDate.Equal(lastCharge.AddDate(0, 0, 30)),
		"next expected %s", pattern.NextExpectedDate)
}

func TestDetectRejectsIntervalOutsideBuckets(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(t, db, "u1", -500.00, base, "BIG STORE")
	seedExpense(t, db, "u1", -5000.00, base.AddDate(0, 0, 2), "BIG STORE")

	detector := newTestDetector(db)
	count, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, count)

	patterns, err := db.ActivePatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, patterns)
}

func TestDetectRejectsLowConfidence(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	// Interval lands in the monthly bucket but gaps are ragged and amounts
	// drift, so the weighted score falls under the minimum.
	seedExpense(t, db, "u1", -10.00, base, "SOME SHOP")
	seedExpense(t, db, "u1", -14.00, base.AddDate(0, 0, 26), "SOME SHOP")
	seedExpense(t, db, "u1", -18.00, base.AddDate(0, 0, 61), "SOME SHOP")

	detector := newTestDetector(db)
	count, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDetectMergesSimilarMerchantKeys(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	descriptions := []string{"NETFLIX.COM", "NETFLIX.COM", "NETFLIX COM", "NETFLIX.COM", "NETFLIX COM"}
	for i, description := range descriptions {
		seedExpense(t, db, "u1", -15.99, base.AddDate(0, 0, i*30), description)
	}

	detector := newTestDetector(db)
	count, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, count, "variant spellings should merge into one pattern")

	patterns, err := db.ActivePatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	// The dominant spelling's key wins.
	require.Equal(t, "netflix.com", patterns[0].MerchantKey)
	require.Equal(t, 5, patterns[0].OccurrenceCount)
}

func TestDetectIgnoresTransfersAndIncome(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	pairID := "pair-1"
	for i := 0; i < 5; i++ {
		db.AddTransaction(&models.InternalTransaction{
			UserID:         "u1",
			Amount:         decimal.NewFromFloat(-200.00),
			Date:           base.AddDate(0, 0, i*30),
			Description:    "SAVINGS SWEEP",
			TransferPairID: &pairID,
		})
		seedExpense(t, db, "u1", 2500.00, base.AddDate(0, 0, i*30), "SALARY")
	}

	detector := newTestDetector(db)
	count, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDetectRefreshesExistingPattern(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seedExpense(t, db, "u1", -9.99, base.AddDate(0, 0, i*30), "SPOTIFY")
	}

	detector := newTestDetector(db)
	_, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)

	first, err := db.ActivePatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	firstID := first[0].ID

	// One more charge lands; re-detection must update the same pattern.
	seedExpense(t, db, "u1", -9.99, base.AddDate(0, 0, 120), "SPOTIFY")
	_, err = detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.NoError(t, err)

	second, err := db.ActivePatterns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, firstID, second[0].ID)
	require.Equal(t, 5, second[0].OccurrenceCount)
}

func TestDetectCancelledContext(t *testing.T) {
	db := store.NewMemory()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seedExpense(t, db, "u1", -9.99, base.AddDate(0, 0, i*30), "SPOTIFY")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detector := newTestDetector(db)
	_, err := detector.DetectAndPersistPatterns(ctx, "u1")
	require.Error(t, err)
}

func TestDetectInvalidConfig(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.MinOccurrences = 1
	detector := NewDetector(store.NewMemory(), cfg, nil)

	_, err := detector.DetectAndPersistPatterns(context.Background(), "u1")
	require.Error(t, err)
}
