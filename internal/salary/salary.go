// Package salary normalises free-text salary strings into annual (min, max)
// figures in yen. Boards mix annual (年収/年俸) and monthly (月給/月収)
// markers, 万円 amounts, plain 円 amounts and full-width range separators;
// the parser is the single place where currency text is interpreted —
// extraction adapters never do this themselves.
package salary

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMonthlyCutoff is the plausibility bound for monthly-vs-annual
// disambiguation: an unmarked or monthly-marked amount at or above this is
// treated as already annual and is not multiplied by 12.
const DefaultMonthlyCutoff = 2_500_000

var (
	// 年収460万円 / ＜予定年収＞980万円～1,200万円 / 年俸600万円
	annualRe = regexp.MustCompile(`(?:年収|予定年収|年俸)[＞>]?\s*(\d{1,3}(?:,\d{3})*|\d+)\s*万円`)

	// Any amount with an explicit unit: 460万円, 25万, 380,000円.
	amountRe = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*|\d+)\s*(万円|万|円)`)

	// Range head written without its own unit: the 400 in 400〜600万円.
	rangeHeadRe = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*|\d+)\s*[〜~～ー－-]\s*(?:\d{1,3}(?:,\d{3})*|\d+)\s*万`)

	monthlyMarkerRe = regexp.MustCompile(`月給|月収`)
	annualMarkerRe  = regexp.MustCompile(`年収|予定年収|年俸`)
)

// Parser converts salary text to annual bounds. The zero value uses
// DefaultMonthlyCutoff.
type Parser struct {
	// MonthlyCutoff overrides DefaultMonthlyCutoff when positive.
	MonthlyCutoff int
}

func (p Parser) cutoff() int {
	if p.MonthlyCutoff > 0 {
		return p.MonthlyCutoff
	}
	return DefaultMonthlyCutoff
}

// Parse extracts annual (min, max) in yen from raw salary text.
// Unparseable input yields (nil, nil); that is an expected outcome, not an
// error.
//
// Policy:
//  1. Annual-tagged figures win whenever an annual marker is present;
//     co-present monthly figures are ignored.
//  2. Annual marker but no tagged figure: fall back to any unit-bearing
//     number.
//  3. Monthly-only (or unmarked) figures below the plausibility cutoff are
//     multiplied by 12.
//  4. Multiple figures form a range (min, max); a single figure fills both
//     bounds.
func (p Parser) Parse(text string) (min, max *int) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	isMonthly := monthlyMarkerRe.MatchString(text)
	isAnnual := annualMarkerRe.MatchString(text)

	// Only when monthly figures are co-present do we restrict to the
	// annual-tagged ones; with annual markers alone, every figure in the
	// text is annual (年収500万円〜650万円 tags only the lower bound).
	var amounts []int
	if isAnnual && isMonthly {
		for _, m := range annualRe.FindAllStringSubmatch(text, -1) {
			if v, ok := parseNumber(m[1]); ok {
				amounts = append(amounts, v*10_000)
			}
		}
	}
	if len(amounts) == 0 {
		amounts = p.generalAmounts(text)
	}
	if len(amounts) == 0 {
		return nil, nil
	}

	// Monthly-only figures become annual, unless implausibly large for a
	// monthly wage (those are annual amounts written without a marker).
	if isMonthly && !isAnnual {
		for i, a := range amounts {
			if a < p.cutoff() {
				amounts[i] = a * 12
			}
		}
	}

	lo, hi := amounts[0], amounts[0]
	for _, a := range amounts[1:] {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	return &lo, &hi
}

// generalAmounts collects every unit-bearing number in the text, converting
// 万-scaled values to yen. Plain 円 amounts below 1,000 are treated as
// 万-scaled too — nobody advertises a three-digit yen salary.
func (p Parser) generalAmounts(text string) []int {
	var amounts []int

	for _, m := range rangeHeadRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseNumber(m[1]); ok {
			amounts = append(amounts, v*10_000)
		}
	}

	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		v, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		switch m[2] {
		case "万円", "万":
			v *= 10_000
		case "円":
			if v < 1_000 {
				v *= 10_000
			}
		}
		amounts = append(amounts, v)
	}
	return amounts
}

func parseNumber(s string) (int, bool) {
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
