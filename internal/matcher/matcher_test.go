package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func internalTx(id string, amount float64, day time.Time, description string) *models.InternalTransaction {
	return &models.InternalTransaction{
		ID:          id,
		UserID:      "user-1",
		Amount:      decimal.NewFromFloat(amount),
		Date:        day,
		Description: description,
	}
}

func externalTx(ref string, amount float64, day time.Time, description string) *models.ExternalTransaction {
	return &models.ExternalTransaction{
		Reference:   ref,
		Amount:      decimal.NewFromFloat(amount),
		Date:        day,
		Description: description,
	}
}

func TestMatchExactPair(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -50.00, date(2024, 1, 5), "COFFEE SHOP"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -50.00, date(2024, 1, 5), "COFFEE SHOP PURCHASE"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	pair := result.Matches[0]
	if pair.Method != MethodExact {
		t.Errorf("expected Exact method, got %s", pair.Method)
	}
	if pair.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", pair.Confidence)
	}
	if result.OverallMatchPercentage != 100.0 {
		t.Errorf("expected 100%% match rate, got %f", result.OverallMatchPercentage)
	}
}

func TestMatchDateTolerant(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -20.00, date(2024, 1, 10), "GYM"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -20.00, date(2024, 1, 12), "GYM MEMBERSHIP"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	pair := result.Matches[0]
	if pair.Method != MethodDateTolerant {
		t.Errorf("expected DateTolerant method, got %s", pair.Method)
	}
	if pair.Confidence >= 1.0 || pair.Confidence <= 0.0 {
		t.Errorf("expected confidence in (0,1), got %f", pair.Confidence)
	}
	if pair.DayDistance != 2 {
		t.Errorf("expected day distance 2, got %d", pair.DayDistance)
	}
}

func TestMatchFuzzyDescription(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -15.99, date(2024, 1, 10), "Netflix.com"),
	}
	external := []*models.ExternalTransaction{
		// 5 days out: beyond the DateTolerant window of 3 but within the
		// fuzzy window of 6.
		externalTx("b1", -15.99, date(2024, 1, 15), "PURCHASE NETFLIX.COM #8841"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Method != MethodFuzzyDescription {
		t.Errorf("expected FuzzyDescription method, got %s", result.Matches[0].Method)
	}
}

func TestMatchPartitionCompleteness(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -50.00, date(2024, 1, 5), "COFFEE"),
		internalTx("t2", -30.00, date(2024, 1, 8), "BOOKS"),
		internalTx("t3", -12.50, date(2024, 1, 20), "LUNCH"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -50.00, date(2024, 1, 5), "COFFEE"),
		externalTx("b2", -99.99, date(2024, 1, 9), "UNKNOWN CHARGE"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	total := len(result.Matches) + len(result.UnmatchedInternal) + len(result.UnmatchedExternal)
	if total != len(internal)+len(external)-len(result.Matches) {
		t.Errorf("partition incomplete: %d matches, %d unmatched internal, %d unmatched external",
			len(result.Matches), len(result.UnmatchedInternal), len(result.UnmatchedExternal))
	}

	// No transaction may appear in two buckets.
	seen := make(map[string]bool)
	for _, pair := range result.Matches {
		if seen[pair.Internal.ID] {
			t.Errorf("internal %s consumed twice", pair.Internal.ID)
		}
		seen[pair.Internal.ID] = true
	}
	for _, tx := range result.UnmatchedInternal {
		if seen[tx.ID] {
			t.Errorf("internal %s both matched and unmatched", tx.ID)
		}
		seen[tx.ID] = true
	}
	if len(seen) != len(internal) {
		t.Errorf("expected %d internal transactions accounted for, got %d", len(internal), len(seen))
	}
}

func TestMatchOneToOneConsumption(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	// Two identical externals, one internal: only one can win.
	internal := []*models.InternalTransaction{
		internalTx("t1", -25.00, date(2024, 1, 5), "SUBSCRIPTION"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -25.00, date(2024, 1, 5), "SUBSCRIPTION"),
		externalTx("b2", -25.00, date(2024, 1, 5), "SUBSCRIPTION"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if len(result.UnmatchedExternal) != 1 {
		t.Errorf("expected 1 unmatched external, got %d", len(result.UnmatchedExternal))
	}
	if result.Matches[0].External.Reference != "b1" {
		t.Errorf("expected first external to win, got %s", result.Matches[0].External.Reference)
	}
}

func TestMatchTieBreakPrefersCloserDate(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t-far", -40.00, date(2024, 1, 4), "STORE"),
		internalTx("t-near", -40.00, date(2024, 1, 6), "STORE"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -40.00, date(2024, 1, 7), "STORE"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Internal.ID != "t-near" {
		t.Errorf("expected closer-dated transaction to win, got %s", result.Matches[0].Internal.ID)
	}
}

func TestMatchTieBreakPrefersCloserAmount(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.AmountTolerance = decimal.NewFromFloat(0.05)
	engine := NewEngine(cfg)

	internal := []*models.InternalTransaction{
		internalTx("t-off", -40.04, date(2024, 1, 6), "STORE"),
		internalTx("t-close", -40.01, date(2024, 1, 6), "STORE"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -40.00, date(2024, 1, 6), "STORE"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Internal.ID != "t-close" {
		t.Errorf("expected closer-amount transaction to win, got %s", result.Matches[0].Internal.ID)
	}
}

func TestMatchDeterministicAcrossInputOrder(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	a := internalTx("t1", -10.00, date(2024, 1, 5), "ALPHA")
	b := internalTx("t2", -10.00, date(2024, 1, 5), "BETA")
	external := []*models.ExternalTransaction{
		externalTx("b1", -10.00, date(2024, 1, 5), "ALPHA"),
	}

	first, err := engine.Match([]*models.InternalTransaction{a, b}, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	second, err := engine.Match([]*models.InternalTransaction{b, a}, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if first.Matches[0].Internal.ID != second.Matches[0].Internal.ID {
		t.Errorf("match outcome depends on input order: %s vs %s",
			first.Matches[0].Internal.ID, second.Matches[0].Internal.ID)
	}
}

func TestMatchEmptyExternal(t *testing.T) {
	engine := NewEngine(DefaultMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -50.00, date(2024, 1, 5), "COFFEE"),
		internalTx("t2", -30.00, date(2024, 1, 8), "BOOKS"),
	}

	result, err := engine.Match(internal, nil)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 0 {
		t.Errorf("expected no matches, got %d", len(result.Matches))
	}
	if len(result.UnmatchedInternal) != 2 {
		t.Errorf("expected 2 unmatched internal, got %d", len(result.UnmatchedInternal))
	}
	if result.OverallMatchPercentage != 0.0 {
		t.Errorf("expected 0%% match rate, got %f", result.OverallMatchPercentage)
	}
}

func TestMatchInvalidConfig(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.AmountTolerance = decimal.NewFromFloat(-0.01)
	engine := NewEngine(cfg)

	_, err := engine.Match(nil, nil)
	if err == nil {
		t.Fatal("expected validation error for negative tolerance")
	}
	if !engerrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestMatchConfidenceBounds(t *testing.T) {
	engine := NewEngine(RelaxedMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -15.99, date(2024, 1, 1), "Netflix.com"),
		internalTx("t2", -15.97, date(2024, 1, 9), "NETFLIX COM"),
		internalTx("t3", -8.00, date(2024, 1, 15), "CAFE"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -15.99, date(2024, 1, 1), "NETFLIX.COM"),
		externalTx("b2", -15.99, date(2024, 1, 12), "PURCHASE NETFLIX COM"),
		externalTx("b3", -8.00, date(2024, 1, 16), "CAFE"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	for _, pair := range result.Matches {
		if pair.Confidence < 0.0 || pair.Confidence > 1.0 {
			t.Errorf("confidence out of range for %s: %f", pair.External.Reference, pair.Confidence)
		}
		if pair.Method != MethodExact && pair.Confidence >= 1.0 {
			t.Errorf("non-exact match %s has confidence %f, want < 1.0", pair.Method, pair.Confidence)
		}
	}
}

func TestMatchStrictConfigSkipsTolerantTiers(t *testing.T) {
	engine := NewEngine(StrictMatchConfig())

	internal := []*models.InternalTransaction{
		internalTx("t1", -20.00, date(2024, 1, 10), "GYM"),
	}
	external := []*models.ExternalTransaction{
		externalTx("b1", -20.00, date(2024, 1, 12), "GYM"),
	}

	result, err := engine.Match(internal, external)
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if len(result.Matches) != 0 {
		t.Errorf("strict config matched across dates: %d matches", len(result.Matches))
	}
}
