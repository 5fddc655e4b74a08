// Package recurring detects recurring payment patterns from transaction
// history and manages their lifecycle: arrival matching, missed-payment
// sweeps and upcoming-bill projection.
//
// Detection groups expense transactions by normalized merchant key, merges
// near-duplicate groups by string similarity, derives the payment interval
// from the gaps between occurrences and scores a weighted confidence. Only
// patterns whose interval falls into a known bucket (weekly, biweekly,
// monthly) and whose confidence clears the minimum are persisted.
//
// Example usage:
//
//	detector := recurring.NewDetector(db, recurring.DefaultDetectorConfig(), log)
//	count, err := detector.DetectAndPersistPatterns(ctx, userID)
package recurring

import (
	"fmt"
	"math"

	"github.com/digaomatias/mymascada-sub011/internal/models"
)

// DetectorConfig holds the tunables for pattern detection and lifecycle.
type DetectorConfig struct {
	// LookbackMonths is how far back detection scans transaction history.
	LookbackMonths int `json:"lookback_months"`

	// MinOccurrences is the minimum number of transactions a merchant group
	// needs before it can form a pattern.
	MinOccurrences int `json:"min_occurrences"`

	// MinConfidence is the score below which a candidate pattern is
	// discarded.
	MinConfidence float64 `json:"min_confidence"`

	// MergeSimilarity is the key similarity above which two merchant groups
	// are merged during detection.
	MergeSimilarity float64 `json:"merge_similarity"`

	// MaxConsecutiveMisses demotes a pattern to missed status once reached.
	MaxConsecutiveMisses int `json:"max_consecutive_misses"`
}

// DefaultDetectorConfig returns the configuration used in production runs.
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		LookbackMonths:       6,
		MinOccurrences:       2,
		MinConfidence:        0.5,
		MergeSimilarity:      0.8,
		MaxConsecutiveMisses: 3,
	}
}

// Validate checks the configuration before detection executes.
func (c *DetectorConfig) Validate() error {
	if c.LookbackMonths <= 0 {
		return fmt.Errorf("lookback months must be positive: %d", c.LookbackMonths)
	}
	if c.MinOccurrences < 2 {
		return fmt.Errorf("min occurrences must be at least 2: %d", c.MinOccurrences)
	}
	if c.MinConfidence < 0.0 || c.MinConfidence > 1.0 {
		return fmt.Errorf("min confidence must be between 0.0 and 1.0: %f", c.MinConfidence)
	}
	if c.MergeSimilarity < 0.0 || c.MergeSimilarity > 1.0 {
		return fmt.Errorf("merge similarity must be between 0.0 and 1.0: %f", c.MergeSimilarity)
	}
	if c.MaxConsecutiveMisses <= 0 {
		return fmt.Errorf("max consecutive misses must be positive: %d", c.MaxConsecutiveMisses)
	}
	return nil
}

// Clone creates a copy of the configuration.
func (c *DetectorConfig) Clone() *DetectorConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *DetectorConfig) String() string {
	return fmt.Sprintf("DetectorConfig{Lookback: %dmo, MinOcc: %d, MinConf: %.2f, Merge: %.2f, MaxMisses: %d}",
		c.LookbackMonths, c.MinOccurrences, c.MinConfidence, c.MergeSimilarity, c.MaxConsecutiveMisses)
}

// classifyInterval maps an average gap in days to a bucketed interval.
// Returns the rounded interval and false when the gap falls outside every
// bucket.
func classifyInterval(avgGapDays float64) (int, bool) {
	days := int(math.Round(avgGapDays))
	if models.IntervalName(days) == "Unknown" {
		return 0, false
	}
	return days, true
}
