package scoring

// GradeInfo is the discrete classification of a final score.
type GradeInfo struct {
	GPA     float64 `json:"gpa"`
	Letter  string  `json:"letterGrade"`
	Meaning string  `json:"meaning"`
}

// gradeTier is one row of the grade table; MinPercent is inclusive.
type gradeTier struct {
	MinPercent float64
	Grade      GradeInfo
}

// gradeTable is evaluated top-down; the first tier whose lower bound is met wins.
var gradeTable = []gradeTier{ //nolint:gochecknoglobals // fixed lookup table
	{85, GradeInfo{GPA: 4.0, Letter: "A", Meaning: "Excellent"}},
	{80, GradeInfo{GPA: 3.5, Letter: "B+", Meaning: "Very Good"}},
	{75, GradeInfo{GPA: 3.0, Letter: "B", Meaning: "Good"}},
	{70, GradeInfo{GPA: 2.5, Letter: "C+", Meaning: "Fairly Good"}},
	{65, GradeInfo{GPA: 2.0, Letter: "C", Meaning: "Fair"}},
	{60, GradeInfo{GPA: 1.5, Letter: "D+", Meaning: "Poor"}},
	{50, GradeInfo{GPA: 1.0, Letter: "D", Meaning: "Very Poor"}},
}

var failGrade = GradeInfo{GPA: 0, Letter: "F", Meaning: "Fail"} //nolint:gochecknoglobals // fixed lookup value

// Classify maps a 0-5 score to its grade via ToPercent.
func Classify(score float64) GradeInfo {
	return ClassifyPercent(ToPercent(score))
}

// ClassifyPercent maps a percentage directly to its grade.
func ClassifyPercent(percent float64) GradeInfo {
	for _, t := range gradeTable {
		if percent >= t.MinPercent {
			return t.Grade
		}
	}
	return failGrade
}

// Grades lists every grade from best to worst, F included.
func Grades() []GradeInfo {
	out := make([]GradeInfo, 0, len(gradeTable)+1)
	for _, t := range gradeTable {
		out = append(out, t.Grade)
	}
	return append(out, failGrade)
}
