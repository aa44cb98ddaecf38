package prep

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CronbachAlpha computes Cronbach's alpha for item columns of equal length,
// using population variance throughout. It returns NaN with fewer than two
// items or when the total score has no variance.
func CronbachAlpha(items [][]float64) float64 {
	k := len(items)
	if k < 2 {
		return math.NaN()
	}
	n := len(items[0])
	if n == 0 {
		return math.NaN()
	}
	totals := make([]float64, n)
	var sumItemVar float64
	for _, col := range items {
		if len(col) != n {
			return math.NaN()
		}
		sumItemVar += stat.PopVariance(col, nil)
		for i, v := range col {
			totals[i] += v
		}
	}
	totalVar := stat.PopVariance(totals, nil)
	if totalVar == 0 {
		return math.NaN()
	}
	kf := float64(k)
	return kf / (kf - 1) * (1 - sumItemVar/totalVar)
}
