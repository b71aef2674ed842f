// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Rubric dimensions. RaterCount is fixed; the final score is only defined
// once all three raters have complete sheets.
const (
	Sheet1Items   = 14
	Sheet2Items   = 24
	RaterCount    = 3
	ItemsPerRater = Sheet1Items + Sheet2Items
	TotalItems    = RaterCount * ItemsPerRater

	// Unscored marks an item the rater has not filled in.
	Unscored = 0
	MinScore = 1
	MaxScore = 5
)

// SheetID names one of the two rubric instruments.
type SheetID string

const (
	Sheet1 SheetID = "sheet1"
	Sheet2 SheetID = "sheet2"
)

// Len returns the fixed item count of the sheet, or 0 for an unknown id.
func (s SheetID) Len() int {
	switch s {
	case Sheet1:
		return Sheet1Items
	case Sheet2:
		return Sheet2Items
	default:
		return 0
	}
}

// Valid reports whether s names a known sheet.
func (s SheetID) Valid() bool { return s.Len() > 0 }

// ParseSheetID converts a path or flag value into a SheetID.
func ParseSheetID(v string) (SheetID, error) {
	id := SheetID(v)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrSheet, v)
	}
	return id, nil
}

// ScoreSheet holds one rater's scores for a sheet. Each element is Unscored
// or an integer rubric score in [MinScore, MaxScore].
type ScoreSheet []int

// NewScoreSheet returns a zero-filled sheet of length n.
func NewScoreSheet(n int) ScoreSheet { return make(ScoreSheet, n) }

// Clone returns an independent copy.
func (s ScoreSheet) Clone() ScoreSheet {
	if s == nil {
		return nil
	}
	out := make(ScoreSheet, len(s))
	copy(out, s)
	return out
}

// RaterRecord is one committee member's pair of sheets.
type RaterRecord struct {
	Name   string
	Sheet1 ScoreSheet
	Sheet2 ScoreSheet
}

// NewRaterRecord returns an empty record for the rater at index i (0-based).
func NewRaterRecord(i int) RaterRecord {
	return RaterRecord{
		Name:   DefaultRaterName(i),
		Sheet1: NewScoreSheet(Sheet1Items),
		Sheet2: NewScoreSheet(Sheet2Items),
	}
}

// DefaultRaterName is the display name used for the rater at index i.
func DefaultRaterName(i int) string { return "Rater #" + strconv.Itoa(i+1) }

// Sheet returns the sheet named by id.
func (r *RaterRecord) Sheet(id SheetID) (ScoreSheet, error) {
	switch id {
	case Sheet1:
		return r.Sheet1, nil
	case Sheet2:
		return r.Sheet2, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrSheet, id)
	}
}

// Clone returns a deep copy of the record.
func (r RaterRecord) Clone() RaterRecord {
	return RaterRecord{Name: r.Name, Sheet1: r.Sheet1.Clone(), Sheet2: r.Sheet2.Clone()}
}

// StudentInfo describes the candidate being evaluated.
type StudentInfo struct {
	Name        string
	StudentID   string
	Department  string
	ThesisTitle string
}

// Session is the complete form state for one defense: the candidate and the
// three rater records. It is owned by the caller and passed explicitly to
// the scoring functions.
type Session struct {
	ID        string
	Student   StudentInfo
	Raters    [RaterCount]RaterRecord
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns an empty session with zero-filled sheets.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	s := &Session{ID: id, CreatedAt: now, UpdatedAt: now}
	for i := range s.Raters {
		s.Raters[i] = NewRaterRecord(i)
	}
	return s
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	out := *s
	for i := range s.Raters {
		out.Raters[i] = s.Raters[i].Clone()
	}
	return &out
}

// SetStudent replaces the candidate details.
func (s *Session) SetStudent(info StudentInfo) {
	s.Student = info
	s.touch()
}

// SetScore writes a single item. Score may be Unscored to clear the item.
// rater and item are 0-based.
func (s *Session) SetScore(rater int, sheet SheetID, item, score int) error {
	r, err := s.rater(rater)
	if err != nil {
		return err
	}
	sh, err := r.Sheet(sheet)
	if err != nil {
		return err
	}
	if item < 0 || item >= len(sh) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrItemIndex, item, len(sh))
	}
	if score < Unscored || score > MaxScore {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrScoreRange, score, Unscored, MaxScore)
	}
	sh[item] = score
	s.touch()
	return nil
}

// FillSheet sets every item on a sheet to value, which must be a real score.
func (s *Session) FillSheet(rater int, sheet SheetID, value int) error {
	if value < MinScore || value > MaxScore {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrScoreRange, value, MinScore, MaxScore)
	}
	return s.fill(rater, sheet, value)
}

// ClearSheet resets every item on a sheet to Unscored.
func (s *Session) ClearSheet(rater int, sheet SheetID) error {
	return s.fill(rater, sheet, Unscored)
}

// Reset discards the student details and all scores. ID and CreatedAt survive.
func (s *Session) Reset() {
	s.Student = StudentInfo{}
	for i := range s.Raters {
		s.Raters[i] = NewRaterRecord(i)
	}
	s.touch()
}

// Sheets returns all six sheets in rater order, sheet1 before sheet2.
func (s *Session) Sheets() []ScoreSheet {
	out := make([]ScoreSheet, 0, RaterCount*2)
	for i := range s.Raters {
		out = append(out, s.Raters[i].Sheet1, s.Raters[i].Sheet2)
	}
	return out
}

func (s *Session) fill(rater int, sheet SheetID, value int) error {
	r, err := s.rater(rater)
	if err != nil {
		return err
	}
	sh, err := r.Sheet(sheet)
	if err != nil {
		return err
	}
	for i := range sh {
		sh[i] = value
	}
	s.touch()
	return nil
}

func (s *Session) rater(i int) (*RaterRecord, error) {
	if i < 0 || i >= RaterCount {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrRaterIndex, i, RaterCount)
	}
	return &s.Raters[i], nil
}

// touch bumps the revision so autosave can discard stale snapshots.
func (s *Session) touch() {
	s.Revision++
	s.UpdatedAt = time.Now().UTC()
}
