package report

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a numeric value for display. Magnitudes of one
// and above get digit grouping with at most 2 fraction digits; smaller
// magnitudes keep 6 significant digits so sub-cent token prices stay
// visible instead of collapsing to 0.00.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	if v == 0 {
		return "0"
	}
	if math.Abs(v) < 1 {
		if s, ok := formatSmall(v); ok {
			return s
		}
		// Rounded up to one; treat like any other whole value.
	}
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// formatSmall renders |v| < 1 with exactly 6 significant digits in
// plain decimal notation (no exponent). Rounding can carry the value
// into the next decade (0.09999999 becomes 0.1), so the precision is
// redone from the rounded value; a carry all the way to one reports
// not-ok and the caller formats it as a whole value.
func formatSmall(v float64) (string, bool) {
	exp := int(math.Floor(math.Log10(math.Abs(v))))
	// exp is negative here; 6 significant digits end at position exp-5.
	s := strconv.FormatFloat(v, 'f', 5-exp, 64)
	rounded, _ := strconv.ParseFloat(s, 64)
	if math.Abs(rounded) >= 1 {
		return "", false
	}
	if re := int(math.Floor(math.Log10(math.Abs(rounded)))); re != exp {
		s = strconv.FormatFloat(v, 'f', 5-re, 64)
	}
	return s, true
}
