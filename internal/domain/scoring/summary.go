package scoring

import "github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"

// RaterSummary is derived from one RaterRecord on demand. Averages and the
// weighted score are zero unless Complete is true.
type RaterSummary struct {
	Name          string
	Sheet1Average float64
	Sheet2Average float64
	WeightedScore float64
	Sheet1Filled  int
	Sheet2Filled  int
	Complete      bool
}

// Evaluation is the summary of a whole session. FinalScore, Percent and
// Grade are only set when Complete is true.
type Evaluation struct {
	Policy     Policy
	Raters     [model.RaterCount]RaterSummary
	Complete   bool
	FinalScore float64
	Percent    float64
	Grade      *GradeInfo
	Filled     int
	Total      int
}

// Summarize computes the summary of a single rater.
func (p Policy) Summarize(r model.RaterRecord) RaterSummary {
	s1 := p.validScores(r.Sheet1)
	s2 := p.validScores(r.Sheet2)
	sum := RaterSummary{
		Name:         r.Name,
		Sheet1Filled: len(s1),
		Sheet2Filled: len(s2),
		Complete:     len(s1) == model.Sheet1Items && len(s2) == model.Sheet2Items,
	}
	if !sum.Complete {
		return sum
	}
	sum.Sheet1Average = Average(s1)
	sum.Sheet2Average = Average(s2)
	sum.WeightedScore = WeightedScore(sum.Sheet1Average, sum.Sheet2Average)
	return sum
}

// Evaluate summarises every rater and, when all are complete, derives the
// final score, percentage and grade.
func (p Policy) Evaluate(s *model.Session) Evaluation {
	ev := Evaluation{
		Policy: p,
		Filled: p.CountFilled(s.Sheets()...),
		Total:  model.TotalItems,
	}
	weighted := make([]float64, 0, model.RaterCount)
	complete := 0
	for i := range s.Raters {
		ev.Raters[i] = p.Summarize(s.Raters[i])
		if ev.Raters[i].Complete {
			complete++
			weighted = append(weighted, ev.Raters[i].WeightedScore)
		}
	}
	if complete != model.RaterCount {
		return ev
	}
	ev.Complete = true
	ev.FinalScore = FinalScore(weighted)
	ev.Percent = ToPercent(ev.FinalScore)
	g := Classify(ev.FinalScore)
	ev.Grade = &g
	return ev
}

// Evaluate applies DefaultPolicy.
func Evaluate(s *model.Session) Evaluation { return DefaultPolicy.Evaluate(s) }
