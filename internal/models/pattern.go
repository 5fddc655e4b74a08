package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/textnorm"
)

// PatternStatus represents the lifecycle state of a recurring pattern.
// Patterns are never hard-deleted; status transitions preserve history.
type PatternStatus string

const (
	// PatternActive patterns participate in arrival matching, missed-payment
	// sweeps and upcoming-bill projection.
	PatternActive PatternStatus = "active"
	// PatternMissed patterns have missed too many consecutive expected
	// payments and no longer participate in sweeps or projections.
	PatternMissed PatternStatus = "missed"
	// PatternPaused patterns were suspended by the user.
	PatternPaused PatternStatus = "paused"
)

// Interval bucket boundaries, in days. An average gap outside all buckets
// means no pattern.
const (
	WeeklyMinDays   = 5
	WeeklyMaxDays   = 9
	BiweeklyMinDays = 12
	BiweeklyMaxDays = 16
	MonthlyMinDays  = 26
	MonthlyMaxDays  = 35
)

// IntervalName maps an interval in days to its bucket label.
func IntervalName(days int) string {
	switch {
	case days >= WeeklyMinDays && days <= WeeklyMaxDays:
		return "Weekly"
	case days >= BiweeklyMinDays && days <= BiweeklyMaxDays:
		return "Biweekly"
	case days >= MonthlyMinDays && days <= MonthlyMaxDays:
		return "Monthly"
	default:
		return "Unknown"
	}
}

// patternAmountTolerancePercent is the tolerance a pattern applies when
// deciding whether a transaction amount matches its average amount.
var patternAmountTolerancePercent = decimal.NewFromFloat(0.10)

// patternDescriptionThreshold is the minimum merchant-key similarity for a
// transaction description to match a pattern.
const patternDescriptionThreshold = 0.8

// RecurringPattern is a detected recurring payment (subscription, bill).
// MerchantKey is the normalized lifecycle matching key; MerchantName is the
// display form.
type RecurringPattern struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	MerchantName      string          `json:"merchant_name"`
	MerchantKey       string          `json:"merchant_key"`
	IntervalDays      int             `json:"interval_days"`
	AverageAmount     decimal.Decimal `json:"average_amount"`
	Confidence        float64         `json:"confidence"`
	Status            PatternStatus   `json:"status"`
	NextExpectedDate  time.Time       `json:"next_expected_date"`
	LastObservedAt    time.Time       `json:"last_observed_at"`
	OccurrenceCount   int             `json:"occurrence_count"`
	ConsecutiveMisses int             `json:"consecutive_misses"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AmountTolerance returns the absolute amount tolerance for matching a
// transaction against this pattern.
func (p *RecurringPattern) AmountTolerance() decimal.Decimal {
	return p.AverageAmount.Mul(patternAmountTolerancePercent)
}

// Matches reports whether an expense transaction looks like an occurrence
// of this pattern: amount within the pattern's tolerance of the average and
// description normalizing similarly to the merchant key.
func (p *RecurringPattern) Matches(tx *InternalTransaction) bool {
	if tx == nil || !tx.IsExpense() {
		return false
	}

	diff := tx.AbsoluteAmount().Sub(p.AverageAmount).Abs()
	if diff.GreaterThan(p.AmountTolerance()) {
		return false
	}

	key := textnorm.NormalizeDescription(tx.Description)
	if key == "" {
		return false
	}
	if key == p.MerchantKey || strings.Contains(key, p.MerchantKey) || strings.Contains(p.MerchantKey, key) {
		return true
	}
	return textnorm.StringSimilarity(key, p.MerchantKey) >= patternDescriptionThreshold
}

// RecomputeNextExpected derives the next expected date from the last
// observation and the number of consecutive misses. Misses push the
// expectation forward by additional full intervals.
func (p *RecurringPattern) RecomputeNextExpected() {
	p.NextExpectedDate = p.LastObservedAt.AddDate(0, 0, p.IntervalDays*(1+p.ConsecutiveMisses))
}

// IsPastDue reports whether the pattern's next expected date has passed.
func (p *RecurringPattern) IsPastDue(asOf time.Time) bool {
	return p.NextExpectedDate.Before(asOf)
}

// IntervalName returns the bucket label for the pattern's interval.
func (p *RecurringPattern) IntervalName() string {
	return IntervalName(p.IntervalDays)
}

// Validate performs basic validation on the pattern.
func (p *RecurringPattern) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("pattern user id cannot be empty")
	}
	if p.MerchantKey == "" {
		return fmt.Errorf("pattern merchant key cannot be empty")
	}
	if p.IntervalDays <= 0 {
		return fmt.Errorf("pattern interval must be positive: %d", p.IntervalDays)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("pattern confidence must be in [0,1]: %f", p.Confidence)
	}
	return nil
}

// String returns a compact representation for logs.
func (p *RecurringPattern) String() string {
	return fmt.Sprintf("RecurringPattern{Key: %s, Interval: %dd, Avg: %s, Confidence: %.2f}",
		p.MerchantKey, p.IntervalDays, p.AverageAmount.String(), p.Confidence)
}

// OccurrenceStatus classifies a recurring occurrence.
type OccurrenceStatus string

const (
	// OccurrencePosted records a matched payment.
	OccurrencePosted OccurrenceStatus = "posted"
	// OccurrenceMissed records an expected payment that never arrived.
	OccurrenceMissed OccurrenceStatus = "missed"
)

// RecurringOccurrence is one matched or missed event tied to a pattern.
// Append-only; destroyed with its parent pattern.
type RecurringOccurrence struct {
	ID             string           `json:"id"`
	PatternID      string           `json:"pattern_id"`
	Status         OccurrenceStatus `json:"status"`
	ExpectedDate   time.Time        `json:"expected_date"`
	ExpectedAmount decimal.Decimal  `json:"expected_amount"`

	// Set for posted occurrences only.
	TransactionID *string          `json:"transaction_id,omitempty"`
	ActualDate    *time.Time       `json:"actual_date,omitempty"`
	ActualAmount  *decimal.Decimal `json:"actual_amount,omitempty"`
	WasLate       bool             `json:"was_late,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
