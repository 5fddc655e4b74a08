// Package report renders matching results and upcoming-bill projections for
// terminal display or programmatic consumption.
//
// Supported output formats:
//   - Console: human-readable tabular output
//   - JSON: structured output for scripting
//
// Example usage:
//
//	generator, err := report.NewGenerator(report.DefaultReportConfig())
//	err = generator.WriteMatchingResult(result, os.Stdout)
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/digaomatias/mymascada-sub011/internal/matcher"
	"github.com/digaomatias/mymascada-sub011/internal/recurring"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeMatches controls whether every matched pair is listed in
	// console output; the summary table always appears.
	IncludeMatches bool `json:"include_matches"`

	// IncludeUnmatched controls whether unmatched transactions are listed.
	IncludeUnmatched bool `json:"include_unmatched"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeMatches:   false,
		IncludeUnmatched: true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// Generator renders reports for one configuration.
type Generator struct {
	config *ReportConfig
}

// NewGenerator creates a report generator. A nil config selects the
// default.
func NewGenerator(config *ReportConfig) (*Generator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config}, nil
}

// WriteMatchingResult renders a matching result in the configured format.
func (g *Generator) WriteMatchingResult(result *matcher.MatchingResult, writer io.Writer) error {
	if g.config.Format == FormatJSON {
		return writeJSON(result, writer)
	}
	return g.writeMatchingConsole(result, writer)
}

// WriteUpcomingBills renders an upcoming-bill projection in the configured
// format.
func (g *Generator) WriteUpcomingBills(response *recurring.UpcomingBillsResponse, writer io.Writer) error {
	if g.config.Format == FormatJSON {
		return writeJSON(response, writer)
	}
	return g.writeBillsConsole(response, writer)
}

func writeJSON(v interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (g *Generator) writeMatchingConsole(result *matcher.MatchingResult, writer io.Writer) error {
	fmt.Fprintln(writer, "MATCHING SUMMARY")
	fmt.Fprintln(writer, strings.Repeat("=", 50))
	fmt.Fprintf(writer, "%-28s %d\n", "Matched pairs:", len(result.Matches))
	fmt.Fprintf(writer, "%-28s %d\n", "  Exact:", result.ExactMatches)
	fmt.Fprintf(writer, "%-28s %d\n", "  Date tolerant:", result.DateTolerantMatches)
	fmt.Fprintf(writer, "%-28s %d\n", "  Fuzzy description:", result.FuzzyMatches)
	fmt.Fprintf(writer, "%-28s %d\n", "Unmatched (app):", result.UnmatchedAppCount)
	fmt.Fprintf(writer, "%-28s %d\n", "Unmatched (bank):", result.UnmatchedBankCount)
	fmt.Fprintf(writer, "%-28s %.1f%%\n", "Overall match rate:", result.OverallMatchPercentage)

	if g.config.IncludeMatches && len(result.Matches) > 0 {
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "MATCHED PAIRS")
		fmt.Fprintln(writer, strings.Repeat("-", 50))
		for _, pair := range result.Matches {
			fmt.Fprintf(writer, "%-10s %s  %s -> %s (conf %.2f, %s)\n",
				pair.External.Date.Format("2006-01-02"),
				pair.External.Amount.StringFixed(2),
				truncate(pair.External.Description, 24),
				truncate(pair.Internal.Description, 24),
				pair.Confidence, pair.Method)
		}
	}

	if g.config.IncludeUnmatched {
		if len(result.UnmatchedInternal) > 0 {
			fmt.Fprintln(writer)
			fmt.Fprintln(writer, "UNMATCHED APP TRANSACTIONS")
			fmt.Fprintln(writer, strings.Repeat("-", 50))
			for _, tx := range result.UnmatchedInternal {
				fmt.Fprintf(writer, "%-10s %10s  %s\n",
					tx.Date.Format("2006-01-02"), tx.Amount.StringFixed(2), truncate(tx.Description, 36))
			}
		}
		if len(result.UnmatchedExternal) > 0 {
			fmt.Fprintln(writer)
			fmt.Fprintln(writer, "UNMATCHED BANK TRANSACTIONS")
			fmt.Fprintln(writer, strings.Repeat("-", 50))
			for _, ext := range result.UnmatchedExternal {
				fmt.Fprintf(writer, "%-10s %10s  %s\n",
					ext.Date.Format("2006-01-02"), ext.Amount.StringFixed(2), truncate(ext.Description, 36))
			}
		}
	}
	return nil
}

func (g *Generator) writeBillsConsole(response *recurring.UpcomingBillsResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "UPCOMING BILLS (next %d days)\n", response.DaysAhead)
	fmt.Fprintln(writer, strings.Repeat("=", 60))
	if len(response.Bills) == 0 {
		fmt.Fprintln(writer, "No bills expected in this window.")
		return nil
	}

	for _, bill := range response.Bills {
		due := "today"
		if bill.DaysUntilDue == 1 {
			due = "in 1 day"
		} else if bill.DaysUntilDue > 1 {
			due = fmt.Sprintf("in %d days", bill.DaysUntilDue)
		}
		fmt.Fprintf(writer, "%-24s %10s  %-10s %-8s (%s, %d seen)\n",
			truncate(bill.MerchantName, 24),
			bill.ExpectedAmount.StringFixed(2),
			due,
			bill.ConfidenceLevel,
			bill.IntervalName,
			bill.OccurrenceCount)
	}

	fmt.Fprintln(writer, strings.Repeat("-", 60))
	fmt.Fprintf(writer, "%-24s %10s\n", "Total expected:", response.TotalExpectedAmount.StringFixed(2))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
