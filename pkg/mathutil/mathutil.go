// Package mathutil contains the rounding and rate helpers shared by the
// statistics packages.
package mathutil

import "math"

// Round rounds x half away from zero to the given number of decimal digits.
func Round(x float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(x*pow) / pow
}

// Percent returns part/total as a percentage with one decimal digit:
// round(part / total * 1000) / 10. A zero or negative total yields 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
