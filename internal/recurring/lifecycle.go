package recurring

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	"github.com/digaomatias/mymascada-sub011/internal/store"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
	"github.com/digaomatias/mymascada-sub011/pkg/logger"
)

// Lifecycle keeps persisted patterns in sync with reality: arriving
// transactions are matched to patterns, and overdue patterns accumulate
// misses until demotion.
type Lifecycle struct {
	store  store.Store
	config *DetectorConfig
	log    logger.Logger
	now    func() time.Time
}

// NewLifecycle creates a lifecycle manager. A nil config selects the
// default.
func NewLifecycle(s store.Store, config *DetectorConfig, log logger.Logger) *Lifecycle {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Lifecycle{
		store:  s,
		config: config.Clone(),
		log:    log.WithComponent("recurring.lifecycle"),
		now:    time.Now,
	}
}

// TryMatchTransactionToPattern matches a newly arrived transaction against
// the user's active patterns. Patterns are evaluated in stored order and the
// first match wins; a transaction links to at most one occurrence, ever.
// Returns whether a link was made. A failure on one pattern is logged and
// the remaining patterns are still tried.
func (l *Lifecycle) TryMatchTransactionToPattern(ctx context.Context, tx *models.InternalTransaction) (bool, error) {
	if tx == nil {
		return false, engerrors.Validation(engerrors.CodeInvalidInput, "transaction", "nil", "transaction is required")
	}
	if !tx.IsExpense() || tx.IsTransfer() {
		return false, nil
	}

	linked, err := l.store.IsTransactionLinked(ctx, tx.ID)
	if err != nil {
		return false, engerrors.Recurring(engerrors.CodeProcessingError, "occurrence link check", err)
	}
	if linked {
		return false, nil
	}

	patterns, err := l.store.ActivePatterns(ctx, tx.UserID)
	if err != nil {
		return false, engerrors.Recurring(engerrors.CodeProcessingError, "active patterns", err)
	}

	for _, pattern := range patterns {
		if !pattern.Matches(tx) {
			continue
		}
		if err := l.recordArrival(ctx, pattern, tx); err != nil {
			l.log.WithError(err).WithField("pattern_id", pattern.ID).Warn("failed to record arrival, trying next pattern")
			continue
		}
		return true, nil
	}
	return false, nil
}

// recordArrival creates the posted occurrence and rolls the pattern
// forward: running-average amount, occurrence count, observation date,
// misses reset, next expectation one interval out.
func (l *Lifecycle) recordArrival(ctx context.Context, pattern *models.RecurringPattern, tx *models.InternalTransaction) error {
	amount := tx.AbsoluteAmount()
	occurrence := &models.RecurringOccurrence{
		PatternID:      pattern.ID,
		Status:         models.OccurrencePosted,
		ExpectedDate:   pattern.NextExpectedDate,
		ExpectedAmount: pattern.AverageAmount,
		TransactionID:  &tx.ID,
		ActualDate:     &tx.Date,
		ActualAmount:   &amount,
		WasLate:        tx.Date.After(pattern.NextExpectedDate),
	}
	if err := l.store.CreateOccurrence(ctx, occurrence); err != nil {
		return engerrors.Recurring(engerrors.CodeProcessingError, "occurrence creation", err)
	}

	// Running average over the new occurrence count.
	count := int64(pattern.OccurrenceCount)
	pattern.AverageAmount = pattern.AverageAmount.Mul(decimal.NewFromInt(count)).
		Add(amount).
		Div(decimal.NewFromInt(count + 1))
	pattern.OccurrenceCount++
	pattern.LastObservedAt = tx.Date
	pattern.ConsecutiveMisses = 0
	pattern.RecomputeNextExpected()
	pattern.UpdatedAt = l.now().UTC()

	if err := l.store.UpdatePattern(ctx, pattern); err != nil {
		return engerrors.Recurring(engerrors.CodeProcessingError, "pattern update", err)
	}

	l.log.WithFields(logger.Fields{
		"pattern_id":     pattern.ID,
		"transaction_id": tx.ID,
		"was_late":       occurrence.WasLate,
	}).Info("transaction matched to recurring pattern")
	return nil
}

// ProcessMissedPayments sweeps the user's past-due active patterns: each
// gets a missed occurrence at its expected date, its miss counter advances
// and its expectation moves forward one interval per accumulated miss. A
// pattern reaching the miss limit is demoted to missed status. Returns the
// number of missed occurrences recorded. Running the sweep again immediately
// records nothing new because expectations have moved past the cutoff.
func (l *Lifecycle) ProcessMissedPayments(ctx context.Context, userID string) (int, error) {
	asOf := l.now().UTC()
	patterns, err := l.store.PastDuePatterns(ctx, userID, asOf)
	if err != nil {
		return 0, engerrors.Recurring(engerrors.CodeProcessingError, "past-due patterns", err)
	}

	processed := 0
	var firstErr error
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return processed, engerrors.Recurring(engerrors.CodeProcessingError, "missed-payment sweep", err)
		}
		if err := l.recordMiss(ctx, pattern, asOf); err != nil {
			l.log.WithError(err).WithField("pattern_id", pattern.ID).Warn("failed to record miss, continuing")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		processed++
	}

	if processed == 0 && firstErr != nil {
		return 0, firstErr
	}
	return processed, nil
}

// recordMiss appends one missed occurrence and rolls the pattern's
// expectation forward. Only the oldest outstanding expectation is recorded
// per sweep; deeper backlogs drain across successive sweeps.
func (l *Lifecycle) recordMiss(ctx context.Context, pattern *models.RecurringPattern, asOf time.Time) error {
	occurrence := &models.RecurringOccurrence{
		PatternID:      pattern.ID,
		Status:         models.OccurrenceMissed,
		ExpectedDate:   pattern.NextExpectedDate,
		ExpectedAmount: pattern.AverageAmount,
	}
	if err := l.store.CreateOccurrence(ctx, occurrence); err != nil {
		return engerrors.Recurring(engerrors.CodeProcessingError, "missed occurrence creation", err)
	}

	pattern.ConsecutiveMisses++
	pattern.RecomputeNextExpected()
	if pattern.ConsecutiveMisses >= l.config.MaxConsecutiveMisses {
		pattern.Status = models.PatternMissed
		l.log.WithFields(logger.Fields{
			"pattern_id": pattern.ID,
			"misses":     pattern.ConsecutiveMisses,
		}).Info("pattern demoted after consecutive misses")
	}
	pattern.UpdatedAt = asOf

	if err := l.store.UpdatePattern(ctx, pattern); err != nil {
		return engerrors.Recurring(engerrors.CodeProcessingError, "pattern update", err)
	}
	return nil
}
