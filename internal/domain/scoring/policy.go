package scoring

import (
	"fmt"
	"math"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
)

// Policy decides which raw entries count as filled scores. Completeness is
// always judged by the number of valid entries on a sheet.
type Policy string

const (
	// PolicyStrict accepts integers in [1,5]; 0 means unscored.
	PolicyStrict Policy = "strict"
	// PolicyZeroInclusive accepts integers in [0,5]; 0 is a real zero-point score.
	PolicyZeroInclusive Policy = "zero_inclusive"
)

// DefaultPolicy is used by the package-level helpers.
const DefaultPolicy = PolicyStrict

// ParsePolicy validates a configured policy name. The empty string selects
// DefaultPolicy.
func ParsePolicy(v string) (Policy, error) {
	switch Policy(v) {
	case "":
		return DefaultPolicy, nil
	case PolicyStrict, PolicyZeroInclusive:
		return Policy(v), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, v)
	}
}

// Min returns the lowest valid score under p.
func (p Policy) Min() int {
	if p == PolicyZeroInclusive {
		return model.Unscored
	}
	return model.MinScore
}

// IsValidScore reports whether score is an integer inside the policy range.
func (p Policy) IsValidScore(score float64) bool {
	if math.IsNaN(score) || math.IsInf(score, 0) || score != math.Trunc(score) {
		return false
	}
	return score >= float64(p.Min()) && score <= model.MaxScore
}

// CountFilled counts valid entries across all sheets.
func (p Policy) CountFilled(sheets ...model.ScoreSheet) int {
	n := 0
	for _, sh := range sheets {
		for _, v := range sh {
			if p.IsValidScore(float64(v)) {
				n++
			}
		}
	}
	return n
}

// ValidateAll reports whether every entry of every sheet is valid.
func (p Policy) ValidateAll(sheets ...model.ScoreSheet) bool {
	for _, sh := range sheets {
		for _, v := range sh {
			if !p.IsValidScore(float64(v)) {
				return false
			}
		}
	}
	return true
}

// validScores returns the valid entries of sh as floats.
func (p Policy) validScores(sh model.ScoreSheet) []float64 {
	out := make([]float64, 0, len(sh))
	for _, v := range sh {
		if p.IsValidScore(float64(v)) {
			out = append(out, float64(v))
		}
	}
	return out
}

// IsValidScore applies DefaultPolicy.
func IsValidScore(score float64) bool { return DefaultPolicy.IsValidScore(score) }

// CountFilled applies DefaultPolicy.
func CountFilled(sheets ...model.ScoreSheet) int { return DefaultPolicy.CountFilled(sheets...) }

// ValidateAll applies DefaultPolicy.
func ValidateAll(sheets ...model.ScoreSheet) bool { return DefaultPolicy.ValidateAll(sheets...) }
