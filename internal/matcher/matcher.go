package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/digaomatias/mymascada-sub011/internal/models"
	"github.com/digaomatias/mymascada-sub011/internal/textnorm"
	engerrors "github.com/digaomatias/mymascada-sub011/pkg/errors"
)

// MatchMethod identifies which tier produced a match.
type MatchMethod string

const (
	MethodExact            MatchMethod = "Exact"
	MethodDateTolerant     MatchMethod = "DateTolerant"
	MethodFuzzyDescription MatchMethod = "FuzzyDescription"
)

// MatchPair records one matched external/internal pairing.
type MatchPair struct {
	External         *models.ExternalTransaction `json:"external"`
	Internal         *models.InternalTransaction `json:"internal"`
	Confidence       float64                     `json:"confidence"`
	Method           MatchMethod                 `json:"method"`
	DayDistance      int                         `json:"day_distance"`
	AmountDifference decimal.Decimal             `json:"amount_difference"`
}

// MatchingResult partitions every input transaction into exactly one of
// matched, unmatched internal, or unmatched external.
type MatchingResult struct {
	Matches           []*MatchPair                  `json:"matches"`
	UnmatchedInternal []*models.InternalTransaction `json:"unmatched_internal"`
	UnmatchedExternal []*models.ExternalTransaction `json:"unmatched_external"`

	ExactMatches        int `json:"exact_matches"`
	DateTolerantMatches int `json:"date_tolerant_matches"`
	FuzzyMatches        int `json:"fuzzy_matches"`
	UnmatchedBankCount  int `json:"unmatched_bank_count"`
	UnmatchedAppCount   int `json:"unmatched_app_count"`

	// OverallMatchPercentage is matched / (matched + unmatched internal +
	// unmatched external) × 100.
	OverallMatchPercentage float64 `json:"overall_match_percentage"`
}

// Engine runs the tiered matching algorithm for one configuration.
type Engine struct {
	config *MatchConfig
}

// NewEngine creates a matching engine. A nil config selects the default.
func NewEngine(config *MatchConfig) *Engine {
	if config == nil {
		config = DefaultMatchConfig()
	}
	return &Engine{config: config.Clone()}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *MatchConfig {
	return e.config.Clone()
}

// candidate is an internal transaction under consideration for one
// external transaction within a tier.
type candidate struct {
	index      int
	dayDist    int
	amountDiff decimal.Decimal
	confidence float64
}

// Match pairs external bank transactions against internal transactions.
// The internal set is processed in ascending date order regardless of input
// order, so results are deterministic for identical inputs. Every
// transaction lands in exactly one output bucket; a consumed transaction is
// never considered again.
func (e *Engine) Match(internal []*models.InternalTransaction, external []*models.ExternalTransaction) (*MatchingResult, error) {
	if err := e.config.Validate(); err != nil {
		return nil, engerrors.Validation(engerrors.CodeInvalidConfig, "match config", e.config.String(), err.Error())
	}

	// Stable candidate order: ascending date, id as a final tie-break.
	sorted := make([]*models.InternalTransaction, len(internal))
	copy(sorted, internal)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	result := &MatchingResult{}
	consumedInternal := make([]bool, len(sorted))
	consumedExternal := make([]bool, len(external))

	tiers := []struct {
		method  MatchMethod
		enabled bool
		score   func(ext *models.ExternalTransaction, extKey string, tx *models.InternalTransaction) (float64, bool)
	}{
		{MethodExact, true, e.scoreExact},
		{MethodDateTolerant, e.config.UseDateRangeMatching, e.scoreDateTolerant},
		{MethodFuzzyDescription, e.config.UseDescriptionMatching, e.scoreFuzzyDescription},
	}

	for _, tier := range tiers {
		if !tier.enabled {
			continue
		}
		for ei, ext := range external {
			if consumedExternal[ei] {
				continue
			}

			extKey := ""
			if tier.method == MethodFuzzyDescription {
				extKey = textnorm.NormalizeDescription(ext.Description)
			}

			best := e.bestCandidate(ext, extKey, sorted, consumedInternal, tier.score)
			if best == nil {
				continue
			}

			tx := sorted[best.index]
			consumedInternal[best.index] = true
			consumedExternal[ei] = true
			result.Matches = append(result.Matches, &MatchPair{
				External:         ext,
				Internal:         tx,
				Confidence:       best.confidence,
				Method:           tier.method,
				DayDistance:      best.dayDist,
				AmountDifference: best.amountDiff,
			})

			switch tier.method {
			case MethodExact:
				result.ExactMatches++
			case MethodDateTolerant:
				result.DateTolerantMatches++
			case MethodFuzzyDescription:
				result.FuzzyMatches++
			}
		}
	}

	for i, tx := range sorted {
		if !consumedInternal[i] {
			result.UnmatchedInternal = append(result.UnmatchedInternal, tx)
		}
	}
	for i, ext := range external {
		if !consumedExternal[i] {
			result.UnmatchedExternal = append(result.UnmatchedExternal, ext)
		}
	}

	result.UnmatchedAppCount = len(result.UnmatchedInternal)
	result.UnmatchedBankCount = len(result.UnmatchedExternal)

	total := len(result.Matches) + result.UnmatchedAppCount + result.UnmatchedBankCount
	if total > 0 {
		result.OverallMatchPercentage = float64(len(result.Matches)) / float64(total) * 100.0
	}

	return result, nil
}

// bestCandidate scans unconsumed internal transactions and picks the tier's
// best match: smallest day distance, then smallest amount difference, then
// first encountered in ascending-date order.
func (e *Engine) bestCandidate(
	ext *models.ExternalTransaction,
	extKey string,
	sorted []*models.InternalTransaction,
	consumed []bool,
	score func(*models.ExternalTransaction, string, *models.InternalTransaction) (float64, bool),
) *candidate {
	var best *candidate
	for i, tx := range sorted {
		if consumed[i] {
			continue
		}
		confidence, ok := score(ext, extKey, tx)
		if !ok {
			continue
		}
		cand := &candidate{
			index:      i,
			dayDist:    models.DayDistance(tx.Date, ext.Date),
			amountDiff: tx.Amount.Sub(ext.Amount).Abs(),
			confidence: confidence,
		}
		if best == nil || cand.better(best) {
			best = cand
		}
	}
	return best
}

// better reports whether c wins the tie-break against other. Index order
// encodes "first encountered", so strict inequalities keep the earlier
// candidate on full ties.
func (c *candidate) better(other *candidate) bool {
	if c.dayDist != other.dayDist {
		return c.dayDist < other.dayDist
	}
	if !c.amountDiff.Equal(other.amountDiff) {
		return c.amountDiff.LessThan(other.amountDiff)
	}
	return false
}

func (e *Engine) amountWithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(e.config.AmountTolerance)
}

// scoreExact: amount within tolerance on the same calendar date.
func (e *Engine) scoreExact(ext *models.ExternalTransaction, _ string, tx *models.InternalTransaction) (float64, bool) {
	if !e.amountWithinTolerance(tx.Amount, ext.Amount) {
		return 0, false
	}
	if !models.SameCalendarDay(tx.Date, ext.Date) {
		return 0, false
	}
	return 1.0, true
}

// scoreDateTolerant: amount within tolerance, date within the configured
// day tolerance. Confidence decays linearly with day distance and is
// always below 1.0 since a zero distance belongs to the Exact tier.
func (e *Engine) scoreDateTolerant(ext *models.ExternalTransaction, _ string, tx *models.InternalTransaction) (float64, bool) {
	if !e.amountWithinTolerance(tx.Amount, ext.Amount) {
		return 0, false
	}
	dayDist := models.DayDistance(tx.Date, ext.Date)
	if dayDist == 0 || dayDist > e.config.DateToleranceDays {
		return 0, false
	}
	return 1.0 - float64(dayDist)/float64(e.config.DateToleranceDays+1), true
}

// scoreFuzzyDescription: amount within tolerance, date within twice the day
// tolerance, normalized descriptions similar above the threshold.
// Confidence blends description similarity with amount and date closeness.
func (e *Engine) scoreFuzzyDescription(ext *models.ExternalTransaction, extKey string, tx *models.InternalTransaction) (float64, bool) {
	if extKey == "" {
		return 0, false
	}
	if !e.amountWithinTolerance(tx.Amount, ext.Amount) {
		return 0, false
	}

	window := e.config.DateToleranceDays * 2
	if window == 0 {
		window = 2
	}
	dayDist := models.DayDistance(tx.Date, ext.Date)
	if dayDist > window {
		return 0, false
	}

	txKey := textnorm.NormalizeDescription(tx.Description)
	similarity := textnorm.StringSimilarity(extKey, txKey)
	if similarity < e.config.DescriptionThreshold {
		return 0, false
	}

	amountScore := 1.0
	if e.config.AmountTolerance.IsPositive() {
		diff := tx.Amount.Sub(ext.Amount).Abs()
		amountScore = 1.0 - diff.Div(e.config.AmountTolerance).InexactFloat64()
	}
	dateScore := 1.0 - float64(dayDist)/float64(window+1)

	confidence := 0.55*similarity + 0.30*amountScore + 0.15*dateScore
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, true
}
