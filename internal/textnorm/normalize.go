// Package textnorm provides description normalization and string similarity
// scoring for merchant grouping and fuzzy transaction matching.
//
// Bank descriptions are noisy: the same merchant shows up as
// "PURCHASE NETFLIX.COM #8841", "Netflix.com 12/01" and "POS NETFLIX.COM".
// Normalization strips transaction-type prefixes, reference tokens and
// date/time fragments so that descriptions from different feeds collapse to
// a comparable merchant key. All functions are pure.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

// Prefixes commonly prepended by card processors. Stripped repeatedly so
// that stacked prefixes ("pos purchase ...") also collapse.
var typePrefixes = []string{
	"purchase ",
	"payment ",
	"pos ",
	"debit ",
	"eftpos ",
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	referenceRe    = regexp.MustCompile(`(#\d+|\bref[:\s]\s*\w+)`)
	dateLikeRe     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`)
	timeLikeRe     = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s*(?:am|pm)?\b`)
	trailingNumsRe = regexp.MustCompile(`(\s+\d+)+$`)
)

// NormalizeDescription reduces a raw transaction description to a stable
// merchant key: lowercased, prefix/reference/date/time tokens removed,
// whitespace collapsed. Empty input yields an empty string.
func NormalizeDescription(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}
	s = whitespaceRe.ReplaceAllString(s, " ")

	for {
		stripped := false
		for _, prefix := range typePrefixes {
			if strings.HasPrefix(s, prefix) {
				s = s[len(prefix):]
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}

	s = referenceRe.ReplaceAllString(s, " ")
	s = dateLikeRe.ReplaceAllString(s, " ")
	s = timeLikeRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = trailingNumsRe.ReplaceAllString(s, "")

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// UnknownMerchant is the display name used when a description normalizes to
// nothing usable.
const UnknownMerchant = "Unknown Merchant"

// FormatMerchantName produces a display name from a raw description:
// normalized and title-cased. Falls back to UnknownMerchant for
// empty or whitespace-only input.
func FormatMerchantName(text string) string {
	normalized := NormalizeDescription(text)
	if normalized == "" {
		return UnknownMerchant
	}

	words := strings.Fields(normalized)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
