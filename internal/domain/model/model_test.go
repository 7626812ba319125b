package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func validSubmission() model.Submission {
	return model.Submission{
		MDPName:       "Jordan Lee",
		Function:      model.FunctionPlanning,
		ManagerName:   "Alice",
		Rotation:      "2",
		JobKnowledge:  4,
		QualityOfWork: 3,
		Communication: 2,
		Initiative:    1,
	}
}

func TestSubmissionDecoding(t *testing.T) {
	convey.Convey("Given a JSON form payload", t, func() {
		convey.Convey("When ratings and rotation arrive as strings", func() {
			payload := `{"mdpName":" Jordan ","function":"Planning","managerName":"Alice","rotation":3,
				"jobKnowledge":"4","qualityOfWork":"3","communication":2,"initiative":"1",
				"functionSpecific1":"5","functionSpecific2":""}`
			var s model.Submission
			err := json.Unmarshal([]byte(payload), &s)
			s.Normalize()

			convey.Convey("Then they are coerced into typed fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.MDPName, convey.ShouldEqual, "Jordan")
				convey.So(string(s.Rotation), convey.ShouldEqual, "3")
				convey.So(s.JobKnowledge, convey.ShouldEqual, model.Rating(4))
				convey.So(s.Initiative, convey.ShouldEqual, model.Rating(1))
				convey.So(s.FunctionSpecific1, convey.ShouldNotBeNil)
				convey.So(*s.FunctionSpecific1, convey.ShouldEqual, model.Rating(5))
				convey.So(s.FunctionSpecific2, convey.ShouldBeNil)
				convey.So(s.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When ratings are invalid or fractional", func() {
			payload := `{"jobKnowledge":"great","qualityOfWork":3.5,"communication":null}`
			var s model.Submission
			err := json.Unmarshal([]byte(payload), &s)

			convey.Convey("Then null is unanswered and the rest are marked invalid", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.JobKnowledge, convey.ShouldEqual, model.InvalidRating)
				convey.So(s.QualityOfWork, convey.ShouldEqual, model.InvalidRating)
				convey.So(s.Communication, convey.ShouldEqual, model.Rating(0))
			})
		})

		convey.Convey("When a function-specific rating is not a whole number", func() {
			payload := `{"mdpName":"Jordan","function":"Planning","managerName":"Alice","rotation":"1",
				"jobKnowledge":4,"qualityOfWork":3,"communication":2,"initiative":1,
				"functionSpecific1":"abc","functionSpecific2":3.5}`
			var s model.Submission
			err := json.Unmarshal([]byte(payload), &s)
			s.Normalize()

			convey.Convey("Then it is kept and rejected rather than stored as unanswered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.FunctionSpecific1, convey.ShouldNotBeNil)
				convey.So(s.FunctionSpecific2, convey.ShouldNotBeNil)

				var verr *model.ValidationError
				convey.So(errors.As(s.Validate(), &verr), convey.ShouldBeTrue)
				fields := make([]string, 0, len(verr.Fields))
				for _, f := range verr.Fields {
					fields = append(fields, f.Field)
				}
				convey.So(fields, convey.ShouldResemble, []string{"functionSpecific1", "functionSpecific2"})
			})
		})

		convey.Convey("When a function-specific rating is blank or null", func() {
			payload := `{"mdpName":"Jordan","function":"Planning","managerName":"Alice","rotation":"1",
				"jobKnowledge":4,"qualityOfWork":3,"communication":2,"initiative":1,
				"functionSpecific1":"  ","functionSpecific2":null}`
			var s model.Submission
			err := json.Unmarshal([]byte(payload), &s)
			s.Normalize()

			convey.Convey("Then it stays unanswered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.FunctionSpecific1, convey.ShouldBeNil)
				convey.So(s.FunctionSpecific2, convey.ShouldBeNil)
				convey.So(s.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestSubmissionValidate(t *testing.T) {
	convey.Convey("Given a submission", t, func() {
		convey.Convey("When every field is acceptable", func() {
			s := validSubmission()
			convey.So(s.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When required fields are empty", func() {
			s := validSubmission()
			s.MDPName = "  "
			s.ManagerName = ""
			err := s.Validate()

			convey.Convey("Then a validation error lists them", func() {
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
				var verr *model.ValidationError
				convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
				convey.So(len(verr.Fields), convey.ShouldEqual, 2)
				convey.So(verr.Fields[0].Field, convey.ShouldEqual, "mdpName")
				convey.So(verr.Fields[1].Field, convey.ShouldEqual, "managerName")
			})
		})

		convey.Convey("When a rating is out of range", func() {
			s := validSubmission()
			s.JobKnowledge = 6
			s.Initiative = 0
			bad := model.Rating(9)
			s.FunctionSpecific2 = &bad
			err := s.Validate()

			convey.Convey("Then each offending rating is reported", func() {
				var verr *model.ValidationError
				convey.So(errors.As(err, &verr), convey.ShouldBeTrue)
				fields := make([]string, 0, len(verr.Fields))
				for _, f := range verr.Fields {
					fields = append(fields, f.Field)
				}
				convey.So(fields, convey.ShouldResemble, []string{"jobKnowledge", "initiative", "functionSpecific2"})
				convey.So(err.Error(), convey.ShouldContainSubstring, "jobKnowledge must be between 1 and 5")
			})
		})

		convey.Convey("When the function is not enumerated", func() {
			s := validSubmission()
			s.Function = "Finance"
			err := s.Validate()
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "function is not a known function")
		})
	})
}

func TestNewRecord(t *testing.T) {
	convey.Convey("Given a validated submission", t, func() {
		s := validSubmission()
		fs := model.Rating(4)
		s.FunctionSpecific1 = &fs

		convey.Convey("When a record is built and stamped", func() {
			ts := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
			loc := time.FixedZone("CST", -6*60*60)
			rec := model.NewRecord(s).Stamp("mdp_1", ts, loc)

			convey.Convey("Then the composite is computed and rounded once", func() {
				convey.So(rec.CompositeScore, convey.ShouldAlmostEqual, 3.05, 1e-9)
				convey.So(rec.Band(), convey.ShouldEqual, "medium")
			})

			convey.Convey("And identity fields are set", func() {
				convey.So(rec.ID, convey.ShouldEqual, "mdp_1")
				convey.So(rec.Timestamp.Equal(ts), convey.ShouldBeTrue)
				convey.So(rec.SubmittedAt, convey.ShouldEqual, "03/01/2026, 09:04:05 AM")
				convey.So(*rec.FunctionSpecific1, convey.ShouldEqual, 4)
				convey.So(rec.FunctionSpecific2, convey.ShouldBeNil)
				convey.So(rec.AreaRatings(), convey.ShouldResemble, [4]int{4, 3, 2, 1})
			})

			convey.Convey("And absent function-specific ratings encode as null", func() {
				data, err := json.Marshal(rec)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, `"functionSpecific2":null`)
			})
		})
	})
}

func TestFunctions(t *testing.T) {
	convey.Convey("Given the enumerated functions", t, func() {
		convey.So(len(model.Functions()), convey.ShouldEqual, 4)
		for _, f := range model.Functions() {
			convey.So(f.Valid(), convey.ShouldBeTrue)
			q, ok := model.FunctionQuestions(f)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(q[0], convey.ShouldNotBeEmpty)
		}
		convey.So(model.Function("planning").Valid(), convey.ShouldBeFalse)
		_, ok := model.FunctionQuestions("Other")
		convey.So(ok, convey.ShouldBeFalse)
	})
}
