package model_test

import (
	"errors"
	"testing"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewSession(t *testing.T) {
	convey.Convey("Given a new session", t, func() {
		s := model.NewSession("abc")

		convey.Convey("Then every rater should start with zero-filled sheets", func() {
			convey.So(s.ID, convey.ShouldEqual, "abc")
			convey.So(s.Revision, convey.ShouldEqual, 0)
			for i, r := range s.Raters {
				convey.So(r.Name, convey.ShouldEqual, model.DefaultRaterName(i))
				convey.So(len(r.Sheet1), convey.ShouldEqual, model.Sheet1Items)
				convey.So(len(r.Sheet2), convey.ShouldEqual, model.Sheet2Items)
				for _, v := range append(r.Sheet1.Clone(), r.Sheet2...) {
					convey.So(v, convey.ShouldEqual, model.Unscored)
				}
			}
			convey.So(len(s.Sheets()), convey.ShouldEqual, 6)
		})

		convey.Convey("Then the rubric dimensions should add up", func() {
			convey.So(model.ItemsPerRater, convey.ShouldEqual, 38)
			convey.So(model.TotalItems, convey.ShouldEqual, 114)
		})
	})
}

func TestSessionMutations(t *testing.T) {
	convey.Convey("Given an empty session", t, func() {
		s := model.NewSession("abc")

		convey.Convey("When setting a single score", func() {
			err := s.SetScore(1, model.Sheet2, 23, 4)

			convey.Convey("Then it should be stored and the revision bumped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.Raters[1].Sheet2[23], convey.ShouldEqual, 4)
				convey.So(s.Revision, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When clearing a score back to unscored", func() {
			convey.So(s.SetScore(0, model.Sheet1, 0, 5), convey.ShouldBeNil)
			convey.So(s.SetScore(0, model.Sheet1, 0, model.Unscored), convey.ShouldBeNil)
			convey.So(s.Raters[0].Sheet1[0], convey.ShouldEqual, model.Unscored)
		})

		convey.Convey("When the arguments are out of range", func() {
			convey.So(errors.Is(s.SetScore(3, model.Sheet1, 0, 1), model.ErrRaterIndex), convey.ShouldBeTrue)
			convey.So(errors.Is(s.SetScore(-1, model.Sheet1, 0, 1), model.ErrRaterIndex), convey.ShouldBeTrue)
			convey.So(errors.Is(s.SetScore(0, "sheet3", 0, 1), model.ErrSheet), convey.ShouldBeTrue)
			convey.So(errors.Is(s.SetScore(0, model.Sheet1, 14, 1), model.ErrItemIndex), convey.ShouldBeTrue)
			convey.So(errors.Is(s.SetScore(0, model.Sheet1, 0, 6), model.ErrScoreRange), convey.ShouldBeTrue)
			convey.So(errors.Is(s.SetScore(0, model.Sheet1, 0, -1), model.ErrScoreRange), convey.ShouldBeTrue)

			convey.Convey("Then nothing should change", func() {
				convey.So(s.Revision, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When bulk filling a sheet", func() {
			err := s.FillSheet(2, model.Sheet1, 4)

			convey.Convey("Then every item should hold the value", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, v := range s.Raters[2].Sheet1 {
					convey.So(v, convey.ShouldEqual, 4)
				}
				convey.So(s.Raters[2].Sheet2[0], convey.ShouldEqual, model.Unscored)
			})

			convey.Convey("And clearing it should zero every item", func() {
				convey.So(s.ClearSheet(2, model.Sheet1), convey.ShouldBeNil)
				for _, v := range s.Raters[2].Sheet1 {
					convey.So(v, convey.ShouldEqual, model.Unscored)
				}
				convey.So(s.Revision, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When bulk filling with zero", func() {
			err := s.FillSheet(0, model.Sheet1, 0)
			convey.So(errors.Is(err, model.ErrScoreRange), convey.ShouldBeTrue)
		})

		convey.Convey("When resetting a filled session", func() {
			s.SetStudent(model.StudentInfo{Name: "Ada", Department: "CS"})
			convey.So(s.FillSheet(0, model.Sheet2, 5), convey.ShouldBeNil)
			s.Reset()

			convey.Convey("Then the student and scores should be empty", func() {
				convey.So(s.Student, convey.ShouldResemble, model.StudentInfo{})
				convey.So(s.Raters[0].Sheet2[5], convey.ShouldEqual, model.Unscored)
				convey.So(s.ID, convey.ShouldEqual, "abc")
				convey.So(s.Revision, convey.ShouldEqual, 3)
			})
		})
	})
}

func TestSessionClone(t *testing.T) {
	convey.Convey("Given a session and its clone", t, func() {
		s := model.NewSession("abc")
		c := s.Clone()

		convey.Convey("When the source session is edited", func() {
			convey.So(s.SetScore(0, model.Sheet1, 0, 5), convey.ShouldBeNil)

			convey.Convey("Then the clone should be unaffected", func() {
				convey.So(c.Raters[0].Sheet1[0], convey.ShouldEqual, model.Unscored)
				convey.So(c.Revision, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When taking a snapshot", func() {
			convey.So(s.SetScore(0, model.Sheet1, 0, 5), convey.ShouldBeNil)
			snap := model.NewSnapshot(s)
			convey.So(s.SetScore(0, model.Sheet1, 0, 1), convey.ShouldBeNil)

			convey.Convey("Then it should freeze the revision and content", func() {
				convey.So(snap.SessionID, convey.ShouldEqual, "abc")
				convey.So(snap.Revision, convey.ShouldEqual, 1)
				convey.So(snap.Session.Raters[0].Sheet1[0], convey.ShouldEqual, 5)
			})
		})
	})
}

func TestSheetID(t *testing.T) {
	convey.Convey("Given sheet identifiers", t, func() {
		convey.So(model.Sheet1.Len(), convey.ShouldEqual, 14)
		convey.So(model.Sheet2.Len(), convey.ShouldEqual, 24)
		convey.So(model.SheetID("x").Len(), convey.ShouldEqual, 0)

		id, err := model.ParseSheetID("sheet2")
		convey.So(err, convey.ShouldBeNil)
		convey.So(id, convey.ShouldEqual, model.Sheet2)

		_, err = model.ParseSheetID("sheet9")
		convey.So(errors.Is(err, model.ErrSheet), convey.ShouldBeTrue)
	})
}
