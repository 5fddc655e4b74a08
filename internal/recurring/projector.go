package recurring

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/store"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
	"github.com/digaomatias/mymascada-sub011/pkg/logger"
)

// DefaultDaysAhead is the projection horizon when the caller passes zero.
const DefaultDaysAhead = 7

// Confidence level boundaries for the projection's qualitative labels.
const (
	highConfidenceFloor   = 0.8
	mediumConfidenceFloor = 0.6
)

// UpcomingBill is one projected payment within the horizon.
type UpcomingBill struct {
	PatternID       string          `json:"pattern_id"`
	MerchantName    string          `json:"merchant_name"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
	ExpectedDate    time.Time       `json:"expected_date"`
	DaysUntilDue    int             `json:"days_until_due"`
	ConfidenceScore float64         `json:"confidence_score"`
	ConfidenceLevel string          `json:"confidence_level"`
	IntervalName    string          `json:"interval_name"`
	OccurrenceCount int             `json:"occurrence_count"`
}

// UpcomingBillsResponse lists projected bills ordered by urgency.
type UpcomingBillsResponse struct {
	Bills               []*UpcomingBill `json:"bills"`
	TotalExpectedAmount decimal.Decimal `json:"total_expected_amount"`
	DaysAhead           int             `json:"days_ahead"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// Projector answers "what bills are due soon" from active patterns.
type Projector struct {
	store store.Store
	log   logger.Logger
	now   func() time.Time
}

// NewProjector creates an upcoming-bill projector.
func NewProjector(s store.Store, log logger.Logger) *Projector {
	if log == nil {
		log = logger.Discard()
	}
	return &Projector{
		store: s,
		log:   log.WithComponent("recurring.projector"),
		now:   time.Now,
	}
}

// GetUpcomingBills projects the user's active patterns due within daysAhead
// days of today, inclusive on both ends. A non-positive daysAhead selects
// the default horizon. No due patterns yields an empty response, not an
// error.
func (p *Projector) GetUpcomingBills(ctx context.Context, userID string, daysAhead int) (*UpcomingBillsResponse, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultDaysAhead
	}

	now := p.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, daysAhead).Add(24*time.Hour - time.Nanosecond)

	patterns, err := p.store.UpcomingPatterns(ctx, userID, today, end)
	if err != nil {
		return nil, engerrors.Recurring(engerrors.CodeProcessingError, "upcoming patterns", err)
	}

	response := &UpcomingBillsResponse{
		Bills:               make([]*UpcomingBill, 0, len(patterns)),
		TotalExpectedAmount: decimal.Zero,
		DaysAhead:           daysAhead,
		GeneratedAt:         now,
	}

	for _, pattern := range patterns {
		amount := pattern.AverageAmount.Round(2)
		bill := &UpcomingBill{
			PatternID:       pattern.ID,
			MerchantName:    pattern.MerchantName,
			ExpectedAmount:  amount,
			ExpectedDate:    pattern.NextExpectedDate,
			DaysUntilDue:    daysUntil(today, pattern.NextExpectedDate),
			ConfidenceScore: pattern.Confidence,
			ConfidenceLevel: confidenceLevel(pattern.Confidence),
			IntervalName:    pattern.IntervalName(),
			OccurrenceCount: pattern.OccurrenceCount,
		}
		response.Bills = append(response.Bills, bill)
		response.TotalExpectedAmount = response.TotalExpectedAmount.Add(amount)
	}

	sort.SliceStable(response.Bills, func(i, j int) bool {
		if response.Bills[i].DaysUntilDue != response.Bills[j].DaysUntilDue {
			return response.Bills[i].DaysUntilDue < response.Bills[j].DaysUntilDue
		}
		return response.Bills[i].ConfidenceScore > response.Bills[j].ConfidenceScore
	})

	p.log.WithFields(logger.Fields{
		"user_id":    userID,
		"days_ahead": daysAhead,
		"bills":      len(response.Bills),
	}).Debug("upcoming bills projected")
	return response, nil
}

// confidenceLevel maps a score to its qualitative label.
func confidenceLevel(score float64) string {
	switch {
	case score >= highConfidenceFloor:
		return "High"
	case score >= mediumConfidenceFloor:
		return "Medium"
	default:
		return "Low"
	}
}

// daysUntil counts whole calendar days from today to the due date. Due
// today is zero; past-due clamps to zero rather than going negative.
func daysUntil(today, due time.Time) int {
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	days := int(dueDay.Sub(today).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
