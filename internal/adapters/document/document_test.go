package document_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func zeros(n int) string {
	return "[" + strings.TrimSuffix(strings.Repeat("0,", n), ",") + "]"
}

func fours(n int) string {
	return "[" + strings.TrimSuffix(strings.Repeat("4,", n), ",") + "]"
}

func rater(name, s1, s2 string) string {
	return `{"name":"` + name + `","sheet1":` + s1 + `,"sheet2":` + s2 + `}`
}

func TestDecode(t *testing.T) {
	Convey("Given a complete document", t, func() {
		body := `{"student":{"name":"Ada","studentId":"S1","department":"CS","thesisTitle":"Engines"},"raters":[` +
			rater("Dr. A", fours(14), fours(24)) + "," +
			rater("", zeros(14), zeros(24)) + "," +
			rater("Dr. C", fours(14), zeros(24)) + `]}`

		doc, err := document.Decode(strings.NewReader(body))

		Convey("Then it should decode every field", func() {
			So(err, ShouldBeNil)
			So(doc.Student.Name, ShouldEqual, "Ada")
			So(doc.Student.ThesisTitle, ShouldEqual, "Engines")
			So(len(doc.Raters), ShouldEqual, 3)
			So(doc.Raters[0].Name, ShouldEqual, "Dr. A")
			So(doc.Raters[0].Sheet2[23], ShouldEqual, 4)
		})

		Convey("Then a blank rater name should get the default", func() {
			So(doc.Raters[1].Name, ShouldEqual, model.DefaultRaterName(1))
		})

		Convey("And converting to a session should copy the scores", func() {
			s := doc.Session("id-1")
			So(s.ID, ShouldEqual, "id-1")
			So(s.Student.StudentID, ShouldEqual, "S1")
			So(s.Raters[2].Sheet1[13], ShouldEqual, 4)
			So(s.Raters[2].Sheet2[0], ShouldEqual, 0)
		})
	})

	Convey("Given a document with missing parts", t, func() {
		Convey("When raters are absent", func() {
			doc, err := document.Decode(strings.NewReader(`{"student":{"name":"Ada"}}`))

			Convey("Then three empty raters should be used", func() {
				So(err, ShouldBeNil)
				So(len(doc.Raters), ShouldEqual, 3)
				So(len(doc.Raters[2].Sheet2), ShouldEqual, 24)
			})
		})

		Convey("When a sheet is absent or null", func() {
			body := `{"raters":[{"name":"a","sheet2":` + fours(24) + `},{"sheet1":null},{}]}`
			doc, err := document.Decode(strings.NewReader(body))

			Convey("Then it should be zero-filled at the right size", func() {
				So(err, ShouldBeNil)
				So(doc.Raters[0].Sheet1, ShouldResemble, make([]int, 14))
				So(doc.Raters[0].Sheet2[0], ShouldEqual, 4)
				So(len(doc.Raters[1].Sheet1), ShouldEqual, 14)
				So(len(doc.Raters[2].Sheet2), ShouldEqual, 24)
			})
		})

		Convey("When the student is absent", func() {
			doc, err := document.Decode(strings.NewReader(`{}`))
			So(err, ShouldBeNil)
			So(doc.Student, ShouldResemble, document.Student{})
		})
	})

	Convey("Given malformed documents", t, func() {
		cases := map[string]string{
			"invalid JSON":      `{"student":`,
			"two raters":        `{"raters":[{},{}]}`,
			"short sheet":       `{"raters":[{"sheet1":[1,2,3]},{},{}]}`,
			"fractional score":  `{"raters":[{"sheet1":[1,2,3.5,0,0,0,0,0,0,0,0,0,0,0]},{},{}]}`,
			"score above five":  `{"raters":[{},{"sheet2":[6` + strings.Repeat(",0", 23) + `]},{}]}`,
			"negative score":    `{"raters":[{},{},{"sheet1":[-1` + strings.Repeat(",0", 13) + `]}]}`,
			"non-numeric score": `{"raters":[{"sheet1":[true` + strings.Repeat(",0", 13) + `]},{},{}]}`,
			"raters not a list": `{"raters":{"a":1}}`,
			"second document":   `{"student":{"name":"A"}} {"raters":[1]}`,
			"trailing garbage":  `{"student":{"name":"A"}} garbage`,
		}

		for name, body := range cases {
			Convey("When decoding "+name, func() {
				doc, err := document.Decode(strings.NewReader(body))

				Convey("Then a ParseError should be returned", func() {
					So(doc, ShouldBeNil)
					So(err, ShouldNotBeNil)
					var pe *document.ParseError
					So(errors.As(err, &pe), ShouldBeTrue)
					So(errors.Is(err, document.ErrInvalidDocument), ShouldBeTrue)
				})
			})
		}

		Convey("When a score is out of range", func() {
			_, err := document.Decode(strings.NewReader(`{"raters":[{},{"sheet2":[6` + strings.Repeat(",0", 23) + `]},{}]}`))

			Convey("Then the error should name the offending field", func() {
				var pe *document.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Field, ShouldEqual, "raters[1].sheet2[0]")
				So(err.Error(), ShouldContainSubstring, "raters[1].sheet2[0]")
			})
		})

		Convey("When a document is followed by more data", func() {
			_, err := document.Decode(strings.NewReader(`{"student":{"name":"A"}} {"raters":[1]} garbage`))

			Convey("Then the trailing data should be reported", func() {
				So(errors.Is(err, document.ErrInvalidDocument), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "unexpected data after document")
			})
		})

		Convey("When a document is followed only by whitespace", func() {
			doc, err := document.Decode(strings.NewReader("{\"student\":{\"name\":\"A\"}}\n\t "))

			Convey("Then it should decode", func() {
				So(err, ShouldBeNil)
				So(doc.Student.Name, ShouldEqual, "A")
			})
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("Given a session with scores", t, func() {
		s := model.NewSession("x")
		s.SetStudent(model.StudentInfo{Name: "Ada", Department: "CS"})
		So(s.FillSheet(0, model.Sheet1, 5), ShouldBeNil)
		So(s.SetScore(2, model.Sheet2, 7, 3), ShouldBeNil)

		Convey("When encoding and decoding it again", func() {
			var buf bytes.Buffer
			So(document.Encode(&buf, s), ShouldBeNil)
			doc, err := document.Decode(&buf)

			Convey("Then the content should survive", func() {
				So(err, ShouldBeNil)
				back := doc.Session("y")
				So(back.Student, ShouldResemble, s.Student)
				So(back.Raters, ShouldResemble, s.Raters)
			})
		})

		Convey("When encoding", func() {
			var buf bytes.Buffer
			So(document.Encode(&buf, s), ShouldBeNil)

			Convey("Then the wire field names should match the front-end", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"studentId"`)
				So(out, ShouldContainSubstring, `"thesisTitle"`)
				So(out, ShouldContainSubstring, `"sheet1"`)
				So(out, ShouldContainSubstring, `"name": "Rater #1"`)
			})
		})
	})
}

func TestFilename(t *testing.T) {
	Convey("Given student details and a date", t, func() {
		at := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)

		Convey("Then the export name should join name, department and date", func() {
			name := document.Filename(model.StudentInfo{Name: "Ada Lovelace", Department: "CS"}, at)
			So(name, ShouldEqual, "Ada Lovelace-CS-2026-03-09.json")
		})

		Convey("Then path separators should be replaced", func() {
			name := document.Filename(model.StudentInfo{Name: "a/b", Department: `c\d`}, at)
			So(name, ShouldEqual, "a_b-c_d-2026-03-09.json")
		})
	})
}
