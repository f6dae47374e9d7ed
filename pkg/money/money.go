// Package money formats calculator output for display. Calculations stay in
// float64; this package only rounds and renders at the edge.
package money

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places shown to visitors.
const DisplayPlaces = 2

// Finite reports whether x can be rounded for display.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Round rounds x half away from zero to DisplayPlaces. NaN and infinities
// round to zero; check Finite first when that matters.
func Round(x float64) decimal.Decimal {
	if !Finite(x) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(x).Round(DisplayPlaces)
}

// Fixed returns x rounded to DisplayPlaces as a plain string, e.g. "10623.52".
// Non-finite values render as "NaN", "+Inf" or "-Inf".
func Fixed(x float64) string {
	if !Finite(x) {
		return nonFinite(x)
	}
	return Round(x).StringFixed(DisplayPlaces)
}

// INR renders x with the rupee sign and Indian digit grouping,
// e.g. 1234567.891 -> "₹12,34,567.89". Non-finite values render as Fixed does.
func INR(x float64) string {
	if !Finite(x) {
		return nonFinite(x)
	}
	d := Round(x)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	s := d.StringFixed(DisplayPlaces)
	intPart, frac, _ := strings.Cut(s, ".")
	return sign + "₹" + groupIndian(intPart) + "." + frac
}

// groupIndian groups the last three digits, then pairs: 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

func nonFinite(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
