package grading

import (
	"math"

	"github.com/shopspring/decimal"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round2 rounds half away from zero to 2 decimal places. NaN and ±Inf round to 0.
func Round2(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Mean is the arithmetic mean rounded to 2 decimals. NaN and ±Inf are not scores and
// are left out; 0 when nothing remains.
func Mean(values []float64) float64 {
	sum := decimal.Zero
	n := int64(0)
	for _, v := range values {
		if !finite(v) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2).InexactFloat64()
}
