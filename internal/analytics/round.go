package analytics

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// round rounds x half away from zero to the given number of decimals.
// NaN and infinities collapse to 0.
func round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}

// roundInt rounds x half away from zero to a whole number.
func roundInt(x float64) int64 {
	return int64(round(x, 0))
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// percent returns num/den*100, or 0 when den is 0.
func percent(num, den float64) float64 {
	return ratio(num, den) * 100
}

// formatNumber renders a rounded figure without trailing zeros, so 150 reads
// "150" and 33.3 reads "33.3".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
