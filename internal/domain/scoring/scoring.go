// Package scoring converts raw rubric scores into averages, weighted rater
// scores, a final score and a grade. Every function here is pure; rounding is
// left to RoundForDisplay and must only be applied to values about to be shown.
package scoring

import "math"

// Fixed sheet weights. They sum to 1 so WeightedScore(a, a) == a.
const (
	Sheet1Weight = 0.35
	Sheet2Weight = 0.65

	// PercentPerPoint rescales the 0-5 rubric scale to 0-100.
	PercentPerPoint = 20

	defaultDisplayDecimals = 2
)

// Average returns the arithmetic mean of values, or 0 for an empty slice.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// WeightedScore combines a rater's two sheet averages at 35% / 65%.
// Inputs are trusted; callers only pass averages of complete sheets.
func WeightedScore(sheet1Average, sheet2Average float64) float64 {
	return sheet1Average*Sheet1Weight + sheet2Average*Sheet2Weight
}

// FinalScore is the unweighted mean of the raters' weighted scores.
func FinalScore(weighted []float64) float64 {
	return Average(weighted)
}

// ToPercent converts a 0-5 score to a percentage. Values are not clamped.
func ToPercent(score float64) float64 {
	return score * PercentPerPoint
}

// RoundForDisplay rounds value to the given number of decimals (2 when
// omitted). Only the first decimals argument is used. Halves round toward
// positive infinity, so -0.5 becomes 0 rather than -1.
func RoundForDisplay(value float64, decimals ...int) float64 {
	d := defaultDisplayDecimals
	if len(decimals) > 0 {
		d = decimals[0]
	}
	scale := math.Pow(10, float64(d))
	return math.Floor(value*scale+0.5) / scale
}
