package api_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/http/api"
)

func TestErrorKinds(t *testing.T) {
	Convey("Given a classified handler error", t, func() {
		cause := errors.New("strconv failure")
		err := api.WrapKind("parse rater", api.ErrBadPath, cause)

		Convey("Then both the kind and the cause should match", func() {
			So(errors.Is(err, api.ErrBadPath), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeFalse)
			So(err.Error(), ShouldEqual, "parse rater: invalid path parameter: strconv failure")
		})
	})

	Convey("Given a kind without a cause", t, func() {
		err := api.NewKind("decode score: missing score", api.ErrBadRequest)

		Convey("Then only the kind should match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "decode score: missing score: bad request")
		})
	})
}
