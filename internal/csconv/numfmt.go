package csconv

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"
)

// snapTolerance absorbs textual round-off on angles that sit on a bound.
const snapTolerance = 1e-12

// formatFixed renders v with at most decimals places, trimming trailing
// zeros but keeping one digit after the point.
func formatFixed(v float64, decimals int) string {
	if decimals <= 0 {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}

func formatParam(id uint32, v float64) string {
	return formatFixed(v, precisionOf(id).decimals())
}

// formatFactor renders a unit conversion factor with full precision.
func formatFactor(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func snapAngle(v float64) float64 {
	for _, bound := range [...]float64{180, -180, 90, -90} {
		if scalar.EqualWithinAbs(v, bound, snapTolerance) {
			return bound
		}
	}
	return v
}
