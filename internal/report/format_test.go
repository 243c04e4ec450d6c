package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount_LargeMagnitudes(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{9.5, "9.5"},
		{155.23, "155.23"},
		{1000, "1,000"},
		{1234567.89, "1,234,567.89"},
		{-12345.5, "-12,345.5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(tc.in), "FormatAmount(%v)", tc.in)
	}
}

func TestFormatAmount_AtMostTwoFractionDigits(t *testing.T) {
	for _, v := range []float64{1.0, 3.14159, 42.125, 999999.999, 7e9} {
		out := FormatAmount(v)
		if i := strings.IndexByte(out, '.'); i >= 0 {
			frac := out[i+1:]
			assert.LessOrEqual(t, len(frac), 2, "FormatAmount(%v) = %q", v, out)
		}
	}
}

func TestFormatAmount_SmallMagnitudes(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.5, "0.500000"},
		{0.0000341, "0.0000341000"},
		{0.123456789, "0.123457"},
		{-0.0025, "-0.00250000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(tc.in), "FormatAmount(%v)", tc.in)
	}
}

// Rounding a sub-one value can carry it into the next decade; the
// output must still obey the rules for the magnitude it landed in.
func TestFormatAmount_RoundUpAtDecadeBoundary(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.9999999, "1"},
		{-0.9999999, "-1"},
		{0.99999949, "0.999999"},
		{0.09999999, "0.100000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatAmount(tc.in), "FormatAmount(%v)", tc.in)
	}
}

// Six significant digits keep small token prices visible instead of
// collapsing to 0.00.
func TestFormatAmount_SixSignificantDigits(t *testing.T) {
	for _, v := range []float64{0.9, 0.12345, 0.0004, 0.000000123} {
		out := FormatAmount(v)
		digits := 0
		significant := false
		for _, c := range out {
			if c < '0' || c > '9' {
				continue
			}
			if c != '0' {
				significant = true
			}
			if significant {
				digits++
			}
		}
		assert.Equal(t, 6, digits, "FormatAmount(%v) = %q", v, out)
	}
}

func TestFormatAmount_Specials(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	nan := 0.0
	assert.Equal(t, notAvailable, FormatAmount(nan/nan))
}
