// Package types contains the JSON views served by the API.
package types

import (
	"strconv"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
)

// Student is the candidate on the wire.
type Student struct {
	Name        string `json:"name"`
	StudentID   string `json:"studentId"`
	Department  string `json:"department"`
	ThesisTitle string `json:"thesisTitle"`
}

// Model converts the view back to the domain type.
func (s Student) Model() model.StudentInfo {
	return model.StudentInfo{Name: s.Name, StudentID: s.StudentID, Department: s.Department, ThesisTitle: s.ThesisTitle}
}

// Rater is one rater's sheets.
type Rater struct {
	Name   string `json:"name"`
	Sheet1 []int  `json:"sheet1"`
	Sheet2 []int  `json:"sheet2"`
}

// Session is the full form state.
type Session struct {
	ID        string    `json:"id"`
	Revision  int64     `json:"revision"`
	Student   Student   `json:"student"`
	Raters    []Rater   `json:"raters"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession builds the view of s.
func NewSession(s *model.Session) Session {
	out := Session{
		ID:        s.ID,
		Revision:  s.Revision,
		Student:   Student{Name: s.Student.Name, StudentID: s.Student.StudentID, Department: s.Student.Department, ThesisTitle: s.Student.ThesisTitle},
		Raters:    make([]Rater, len(s.Raters)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for i, r := range s.Raters {
		out.Raters[i] = Rater{Name: r.Name, Sheet1: r.Sheet1.Clone(), Sheet2: r.Sheet2.Clone()}
	}
	return out
}

// SessionInfo is a row of the session listing.
type SessionInfo struct {
	ID         string    `json:"id"`
	Revision   int64     `json:"revision"`
	Student    string    `json:"student"`
	Department string    `json:"department"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RaterSummary reports one rater. Averages are omitted until both sheets
// are complete.
type RaterSummary struct {
	Name          string   `json:"name"`
	Sheet1Filled  int      `json:"sheet1Filled"`
	Sheet2Filled  int      `json:"sheet2Filled"`
	Complete      bool     `json:"complete"`
	Sheet1Average *float64 `json:"sheet1Average,omitempty"`
	Sheet2Average *float64 `json:"sheet2Average,omitempty"`
	WeightedScore *float64 `json:"weightedScore,omitempty"`
}

// Display holds values rounded for presentation. The unrounded values on
// Summary are the ones to compute with.
type Display struct {
	FinalScore     float64   `json:"finalScore"`
	Percent        float64   `json:"percent"`
	WeightedScores []float64 `json:"weightedScores"`
}

// Summary is the evaluation of a session or a stateless document.
type Summary struct {
	SessionID  string             `json:"sessionId,omitempty"`
	Revision   int64              `json:"revision,omitempty"`
	Policy     string             `json:"policy"`
	Raters     []RaterSummary     `json:"raters"`
	Filled     int                `json:"filled"`
	Total      int                `json:"total"`
	Progress   string             `json:"progress"`
	Complete   bool               `json:"complete"`
	FinalScore *float64           `json:"finalScore,omitempty"`
	Percent    *float64           `json:"percent,omitempty"`
	Grade      *scoring.GradeInfo `json:"grade,omitempty"`
	Display    *Display           `json:"display,omitempty"`
}

// NewSummary converts an evaluation into its view.
func NewSummary(ev scoring.Evaluation) Summary { //nolint:gocritic // hugeParam: evaluations are built and consumed once
	out := Summary{
		Policy:   string(ev.Policy),
		Raters:   make([]RaterSummary, len(ev.Raters)),
		Filled:   ev.Filled,
		Total:    ev.Total,
		Progress: strconv.Itoa(ev.Filled) + "/" + strconv.Itoa(ev.Total),
		Complete: ev.Complete,
	}
	for i, r := range ev.Raters {
		rs := RaterSummary{Name: r.Name, Sheet1Filled: r.Sheet1Filled, Sheet2Filled: r.Sheet2Filled, Complete: r.Complete}
		if r.Complete {
			rs.Sheet1Average = ptr(r.Sheet1Average)
			rs.Sheet2Average = ptr(r.Sheet2Average)
			rs.WeightedScore = ptr(r.WeightedScore)
		}
		out.Raters[i] = rs
	}
	if !ev.Complete {
		return out
	}
	out.FinalScore = ptr(ev.FinalScore)
	out.Percent = ptr(ev.Percent)
	out.Grade = ev.Grade
	d := &Display{
		FinalScore:     scoring.RoundForDisplay(ev.FinalScore),
		Percent:        scoring.RoundForDisplay(ev.Percent),
		WeightedScores: make([]float64, len(ev.Raters)),
	}
	for i, r := range ev.Raters {
		d.WeightedScores[i] = scoring.RoundForDisplay(r.WeightedScore)
	}
	out.Display = d
	return out
}

func ptr(v float64) *float64 { return &v }

// AutosaveStats counts autosave outcomes.
type AutosaveStats struct {
	Saved  int64 `json:"saved"`
	Stale  int64 `json:"stale"`
	Failed int64 `json:"failed"`
	Sync   int64 `json:"sync"`
}

// Stats is served at /stats.
type Stats struct {
	Started         bool          `json:"started"`
	Policy          string        `json:"policy"`
	WorkerCount     int           `json:"workerCount"`
	QueueCapacity   int           `json:"queueCapacity"`
	QueueLength     int           `json:"queueLength"`
	DedupeSize      int           `json:"dedupeSize"`
	IdempotencyKeys int64         `json:"idempotencyKeys"`
	LiveSessions    int           `json:"liveSessions"`
	StoredSessions  int           `json:"storedSessions"`
	Autosave        AutosaveStats `json:"autosave"`
}
