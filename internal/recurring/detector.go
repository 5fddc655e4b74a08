package recurring

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	"github.com/digaomatias/mymascada-sub011/internal/store"
	"github.com/digaomatias/mymascada-sub011/internal/textnorm"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
	"github.com/digaomatias/mymascada-sub011/pkg/logger"
)

// Confidence weights. Occurrence count dominates, interval regularity
// second, amount stability last.
const (
	occurrenceWeight = 0.40
	intervalWeight   = 0.35
	amountWeight     = 0.25
)

// intervalSpreadFactor and amountSpreadFactor scale how much deviation a
// candidate tolerates before its consistency score reaches zero: 30% of the
// average gap for intervals, 10% of the average amount for amounts.
const (
	intervalSpreadFactor = 0.3
	amountSpreadFactor   = 0.1
)

// Detector scans a user's expense history and persists recurring patterns.
type Detector struct {
	store  store.Store
	config *DetectorConfig
	log    logger.Logger
	now    func() time.Time
}

// NewDetector creates a detector. A nil config selects the default.
func NewDetector(s store.Store, config *DetectorConfig, log logger.Logger) *Detector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Detector{
		store:  s,
		config: config.Clone(),
		log:    log.WithComponent("recurring.detector"),
		now:    time.Now,
	}
}

// merchantGroup is one normalized-key cluster of expense transactions.
type merchantGroup struct {
	key          string
	transactions []*models.InternalTransaction
}

// DetectAndPersistPatterns scans the lookback window, derives candidate
// patterns per merchant group and upserts each one that qualifies. Returns
// the number of patterns persisted. A failure on one merchant is logged and
// does not abort the others; the context is checked between merchants.
func (d *Detector) DetectAndPersistPatterns(ctx context.Context, userID string) (int, error) {
	if err := d.config.Validate(); err != nil {
		return 0, engerrors.Validation(engerrors.CodeInvalidConfig, "detector config", d.config.String(), err.Error())
	}

	end := d.now().UTC()
	start := end.AddDate(0, -d.config.LookbackMonths, 0)

	transactions, err := d.store.InternalTransactionsByDateRange(ctx, userID, nil, start, end, false)
	if err != nil {
		return 0, engerrors.Recurring(engerrors.CodeDetectionFailed, "transaction history", err)
	}

	groups := d.groupByMerchant(transactions)
	groups = d.mergeSimilarGroups(groups)

	d.log.WithFields(logger.Fields{
		"user_id":         userID,
		"transactions":    len(transactions),
		"merchant_groups": len(groups),
	}).Debug("detection pass starting")

	persisted := 0
	var firstErr error
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return persisted, engerrors.Recurring(engerrors.CodeDetectionFailed, "detection pass", err)
		}

		pattern, ok := d.buildCandidate(userID, group)
		if !ok {
			continue
		}

		if err := d.store.UpsertPattern(ctx, pattern); err != nil {
			d.log.WithError(err).WithField("merchant_key", group.key).Warn("failed to persist pattern, continuing")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		d.log.WithFields(logger.Fields{
			"merchant_key": pattern.MerchantKey,
			"interval":     pattern.IntervalName(),
			"confidence":   pattern.Confidence,
		}).Info("recurring pattern persisted")
		persisted++
	}

	if persisted == 0 && firstErr != nil {
		return 0, engerrors.Recurring(engerrors.CodeDetectionFailed, "pattern persistence", firstErr)
	}
	return persisted, nil
}

// groupByMerchant buckets recurring-eligible expenses by normalized
// description key. Transfers and descriptions that normalize to nothing are
// skipped.
func (d *Detector) groupByMerchant(transactions []*models.InternalTransaction) []*merchantGroup {
	byKey := make(map[string]*merchantGroup)
	for _, tx := range transactions {
		if !tx.IsExpense() || tx.IsTransfer() {
			continue
		}
		key := textnorm.NormalizeDescription(tx.Description)
		if key == "" {
			continue
		}
		group, ok := byKey[key]
		if !ok {
			group = &merchantGroup{key: key}
			byKey[key] = group
		}
		group.transactions = append(group.transactions, tx)
	}

	groups := make([]*merchantGroup, 0, len(byKey))
	for _, group := range byKey {
		groups = append(groups, group)
	}
	// Largest group first so that merging absorbs small variants into the
	// dominant spelling. Key order breaks size ties deterministically.
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].transactions) != len(groups[j].transactions) {
			return len(groups[i].transactions) > len(groups[j].transactions)
		}
		return groups[i].key < groups[j].key
	})
	return groups
}

// mergeSimilarGroups folds near-duplicate merchant keys ("netflix.com" vs
// "netflix com") into the larger group. Single greedy pass: once absorbed, a
// group is never re-split or re-compared.
func (d *Detector) mergeSimilarGroups(groups []*merchantGroup) []*merchantGroup {
	absorbed := make([]bool, len(groups))
	var out []*merchantGroup
	for i, group := range groups {
		if absorbed[i] {
			continue
		}
		for j := i + 1; j < len(groups); j++ {
			if absorbed[j] {
				continue
			}
			if textnorm.StringSimilarity(group.key, groups[j].key) > d.config.MergeSimilarity {
				group.transactions = append(group.transactions, groups[j].transactions...)
				absorbed[j] = true
			}
		}
		out = append(out, group)
	}
	return out
}

// buildCandidate derives a pattern from one merged group, or reports false
// when the group has too few occurrences, an unclassifiable interval or
// insufficient confidence.
func (d *Detector) buildCandidate(userID string, group *merchantGroup) (*models.RecurringPattern, bool) {
	if len(group.transactions) < d.config.MinOccurrences {
		return nil, false
	}

	txs := make([]*models.InternalTransaction, len(group.transactions))
	copy(txs, group.transactions)
	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	gaps := make([]float64, 0, len(txs)-1)
	for i := 1; i < len(txs); i++ {
		gaps = append(gaps, float64(models.DayDistance(txs[i].Date, txs[i-1].Date)))
	}
	avgGap := mean(gaps)

	intervalDays, ok := classifyInterval(avgGap)
	if !ok {
		d.log.WithFields(logger.Fields{
			"merchant_key": group.key,
			"avg_gap":      avgGap,
		}).Debug("average gap outside interval buckets, skipping")
		return nil, false
	}

	amounts := make([]float64, 0, len(txs))
	sum := decimal.Zero
	for _, tx := range txs {
		abs := tx.AbsoluteAmount()
		sum = sum.Add(abs)
		amounts = append(amounts, abs.InexactFloat64())
	}
	averageAmount := sum.Div(decimal.NewFromInt(int64(len(txs))))

	confidence := d.scoreConfidence(len(txs), gaps, avgGap, amounts)
	if confidence < d.config.MinConfidence {
		d.log.WithFields(logger.Fields{
			"merchant_key": group.key,
			"confidence":   confidence,
		}).Debug("confidence below minimum, skipping")
		return nil, false
	}

	latest := txs[len(txs)-1]
	pattern := &models.RecurringPattern{
		UserID:          userID,
		MerchantName:    textnorm.FormatMerchantName(latest.Description),
		MerchantKey:     group.key,
		IntervalDays:    intervalDays,
		AverageAmount:   averageAmount,
		Confidence:      confidence,
		Status:          models.PatternActive,
		LastObservedAt:  latest.Date,
		OccurrenceCount: len(txs),
		UpdatedAt:       d.now().UTC(),
	}
	pattern.RecomputeNextExpected()
	return pattern, true
}

// scoreConfidence computes the weighted pattern confidence: occurrence
// count, interval regularity and amount stability, each scored in [0,1].
func (d *Detector) scoreConfidence(occurrences int, gaps []float64, avgGap float64, amounts []float64) float64 {
	var occScore float64
	switch {
	case occurrences >= 5:
		occScore = 1.0
	case occurrences == 4:
		occScore = 0.9
	case occurrences == 3:
		occScore = 0.75
	default:
		occScore = 0.5
	}

	intervalScore := 0.0
	if avgGap > 0 {
		intervalScore = clamp01(1.0 - meanAbsDeviation(gaps, avgGap)/(avgGap*intervalSpreadFactor))
	}

	amountScore := 0.5
	if len(amounts) >= 2 {
		avgAmount := mean(amounts)
		if avgAmount > 0 {
			amountScore = clamp01(1.0 - meanAbsDeviation(amounts, avgAmount)/(avgAmount*amountSpreadFactor))
		}
	}

	return clamp01(occurrenceWeight*occScore + intervalWeight*intervalScore + amountWeight*amountScore)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanAbsDeviation is the mean absolute deviation of values around center.
func meanAbsDeviation(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - center
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
