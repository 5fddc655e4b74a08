// Package matcher implements the transaction matching engine: pairing
// externally-reported bank transactions against internally recorded ones
// under amount and date tolerance.
//
// Matching runs in priority-ordered tiers, each greedy and one-to-one:
//  1. Exact: amount within tolerance and same calendar date
//  2. DateTolerant: amount within tolerance, date within a day tolerance
//  3. FuzzyDescription: amount within tolerance, date within a wider
//     window, and normalized descriptions similar above a threshold
//
// Every internal and external transaction ends up in exactly one of
// {matched, unmatched internal, unmatched external}. Given identical inputs
// and configuration, matching is deterministic and idempotent.
//
// Example usage:
//
//	cfg := matcher.DefaultMatchConfig()
//	cfg.DateToleranceDays = 2
//
//	result, err := matcher.NewEngine(cfg).Match(internal, external)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchConfig holds the tolerances and feature switches for one matching
// run. Configurations are immutable per call; pass a fresh or cloned value
// rather than mutating a shared one.
type MatchConfig struct {
	// AmountTolerance is the maximum absolute difference between the
	// internal and external amount for the pair to be considered.
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// UseDateRangeMatching enables the DateTolerant tier.
	UseDateRangeMatching bool `json:"use_date_range_matching"`

	// DateToleranceDays is the day tolerance for the DateTolerant tier.
	// The FuzzyDescription tier uses twice this window.
	DateToleranceDays int `json:"date_tolerance_days"`

	// UseDescriptionMatching enables the FuzzyDescription tier.
	UseDescriptionMatching bool `json:"use_description_matching"`

	// DescriptionThreshold is the minimum normalized-description similarity
	// for a FuzzyDescription match.
	DescriptionThreshold float64 `json:"description_threshold"`
}

// DefaultMatchConfig returns the configuration used by reconciliation runs
// unless the caller overrides it.
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		AmountTolerance:        decimal.NewFromFloat(0.01),
		UseDateRangeMatching:   true,
		DateToleranceDays:      3,
		UseDescriptionMatching: true,
		DescriptionThreshold:   0.8,
	}
}

// StrictMatchConfig returns a configuration that only accepts exact
// amount-and-date matches.
func StrictMatchConfig() *MatchConfig {
	return &MatchConfig{
		AmountTolerance:        decimal.NewFromFloat(0.01),
		UseDateRangeMatching:   false,
		DateToleranceDays:      0,
		UseDescriptionMatching: false,
		DescriptionThreshold:   0.9,
	}
}

// RelaxedMatchConfig returns a configuration with loose tolerances for
// exploratory matching of poor-quality feeds.
func RelaxedMatchConfig() *MatchConfig {
	return &MatchConfig{
		AmountTolerance:        decimal.NewFromFloat(0.05),
		UseDateRangeMatching:   true,
		DateToleranceDays:      5,
		UseDescriptionMatching: true,
		DescriptionThreshold:   0.7,
	}
}

// Validate checks the configuration before any matching executes.
func (c *MatchConfig) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance.String())
	}
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}
	if c.DateToleranceDays > 31 {
		return fmt.Errorf("date tolerance days cannot exceed 31: %d", c.DateToleranceDays)
	}
	if c.DescriptionThreshold < 0.0 || c.DescriptionThreshold > 1.0 {
		return fmt.Errorf("description threshold must be between 0.0 and 1.0: %f", c.DescriptionThreshold)
	}
	if c.UseDateRangeMatching && c.DateToleranceDays == 0 {
		return fmt.Errorf("date range matching requires a positive date tolerance")
	}
	return nil
}

// Clone creates a copy of the configuration.
func (c *MatchConfig) Clone() *MatchConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *MatchConfig) String() string {
	return fmt.Sprintf("MatchConfig{AmountTolerance: %s, DateTolerance: %d days, DateRange: %t, Description: %t/%.2f}",
		c.AmountTolerance.String(), c.DateToleranceDays, c.UseDateRangeMatching, c.UseDescriptionMatching, c.DescriptionThreshold)
}
