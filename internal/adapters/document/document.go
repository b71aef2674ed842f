// Package document reads and writes the JSON form shared with the scoring
// front-end:
//
//	{"student": {...}, "raters": [{"name": "", "sheet1": [14], "sheet2": [24]}, x3]}
//
// Decoding is strict about what is present and lenient about what is
// missing: absent sheets become zero-filled, absent raters become empty.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
)

// Student mirrors model.StudentInfo on the wire.
type Student struct {
	Name        string `json:"name"`
	StudentID   string `json:"studentId"`
	Department  string `json:"department"`
	ThesisTitle string `json:"thesisTitle"`
}

// Rater is one rater entry on the wire.
type Rater struct {
	Name   string `json:"name"`
	Sheet1 []int  `json:"sheet1"`
	Sheet2 []int  `json:"sheet2"`
}

// Document is the exported form of a session.
type Document struct {
	Student Student `json:"student"`
	Raters  []Rater `json:"raters"`
}

// rawDocument keeps every field optional so missing and malformed input can
// be told apart.
type rawDocument struct {
	Student *Student    `json:"student"`
	Raters  *[]rawRater `json:"raters"`
}

type rawRater struct {
	Name   string        `json:"name"`
	Sheet1 []json.Number `json:"sheet1"`
	Sheet2 []json.Number `json:"sheet2"`
}

// Decode parses and validates a document. All failures are *ParseError.
func Decode(r io.Reader) (*Document, error) {
	var raw rawDocument
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Reason: "malformed JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Reason: "unexpected data after document"}
	}

	doc := &Document{Raters: emptyRaters()}
	if raw.Student != nil {
		doc.Student = *raw.Student
	}
	if raw.Raters == nil {
		return doc, nil
	}
	if n := len(*raw.Raters); n != model.RaterCount {
		return nil, fieldError("raters", "expected %d raters, got %d", model.RaterCount, n)
	}
	for i, rr := range *raw.Raters {
		prefix := fmt.Sprintf("raters[%d]", i)
		s1, err := decodeSheet(prefix+".sheet1", rr.Sheet1, model.Sheet1Items)
		if err != nil {
			return nil, err
		}
		s2, err := decodeSheet(prefix+".sheet2", rr.Sheet2, model.Sheet2Items)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(rr.Name)
		if name == "" {
			name = model.DefaultRaterName(i)
		}
		doc.Raters[i] = Rater{Name: name, Sheet1: s1, Sheet2: s2}
	}
	return doc, nil
}

// decodeSheet converts a wire sheet. A nil sheet is zero-filled; otherwise
// the length must match and each entry must be an integer in [0,5].
func decodeSheet(field string, values []json.Number, n int) ([]int, error) {
	if values == nil {
		return make([]int, n), nil
	}
	if len(values) != n {
		return nil, fieldError(field, "expected %d items, got %d", n, len(values))
	}
	out := make([]int, n)
	for i, v := range values {
		f, err := v.Float64()
		if err != nil {
			return nil, &ParseError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: "not a number", Err: err}
		}
		if f != math.Trunc(f) || f < model.Unscored || f > model.MaxScore {
			return nil, fieldError(fmt.Sprintf("%s[%d]", field, i), "score %s must be an integer in [%d,%d]", v, model.Unscored, model.MaxScore)
		}
		out[i] = int(f)
	}
	return out, nil
}

func emptyRaters() []Rater {
	out := make([]Rater, model.RaterCount)
	for i := range out {
		out[i] = Rater{
			Name:   model.DefaultRaterName(i),
			Sheet1: make([]int, model.Sheet1Items),
			Sheet2: make([]int, model.Sheet2Items),
		}
	}
	return out
}

// FromSession builds the wire form of s.
func FromSession(s *model.Session) Document {
	doc := Document{
		Student: Student{
			Name:        s.Student.Name,
			StudentID:   s.Student.StudentID,
			Department:  s.Student.Department,
			ThesisTitle: s.Student.ThesisTitle,
		},
		Raters: make([]Rater, len(s.Raters)),
	}
	for i, r := range s.Raters {
		doc.Raters[i] = Rater{Name: r.Name, Sheet1: r.Sheet1.Clone(), Sheet2: r.Sheet2.Clone()}
	}
	return doc
}

// ApplyTo copies the document content into s, replacing the student and
// every rater. It assumes d came from Decode or FromSession.
func (d *Document) ApplyTo(s *model.Session) {
	s.SetStudent(model.StudentInfo{
		Name:        d.Student.Name,
		StudentID:   d.Student.StudentID,
		Department:  d.Student.Department,
		ThesisTitle: d.Student.ThesisTitle,
	})
	for i := range s.Raters {
		if i >= len(d.Raters) {
			s.Raters[i] = model.NewRaterRecord(i)
			continue
		}
		r := d.Raters[i]
		s.Raters[i] = model.RaterRecord{
			Name:   r.Name,
			Sheet1: model.ScoreSheet(r.Sheet1).Clone(),
			Sheet2: model.ScoreSheet(r.Sheet2).Clone(),
		}
	}
}

// Session returns a new session with the given id holding the document content.
func (d *Document) Session(id string) *model.Session {
	s := model.NewSession(id)
	d.ApplyTo(s)
	return s
}

// Encode writes s as indented JSON.
func Encode(w io.Writer, s *model.Session) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromSession(s)); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Filename returns the export name "<name>-<department>-<YYYY-MM-DD>.json".
func Filename(student model.StudentInfo, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s.json",
		sanitize(student.Name), sanitize(student.Department), at.Format(time.DateOnly))
}

// sanitize strips characters that are unsafe in file names and headers.
func sanitize(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '"', '*', '?', '<', '>', '|', '\n', '\r', '\t':
			return '_'
		}
		return r
	}, strings.TrimSpace(v))
}
