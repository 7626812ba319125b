package stats_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/internal/domain/scoring"
	"github.com/okian/mdpsurvey/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func rec(id, name string, fn model.Function, score float64) model.Record {
	return model.Record{
		ID:             id,
		MDPName:        name,
		Function:       fn,
		ManagerName:    "Bob",
		Rotation:       "1",
		JobKnowledge:   4,
		QualityOfWork:  3,
		Communication:  2,
		Initiative:     1,
		CompositeScore: score,
	}
}

func TestAggregateEmpty(t *testing.T) {
	Convey("Given no records", t, func() {
		s := stats.Aggregate(nil)

		Convey("Then every statistic has its empty value", func() {
			So(s.TotalResponses, ShouldEqual, 0)
			So(s.TotalMDPs, ShouldEqual, 0)
			So(s.AverageScore, ShouldEqual, 0)
			So(s.TopPerformer, ShouldEqual, stats.NoPerformer)
			So(s.TopScore, ShouldEqual, 0)
			So(s.TopPerformerID, ShouldBeEmpty)
			So(s.ScoreDistribution, ShouldResemble, [stats.Buckets]int{})
			So(s.AssessmentAreaAverages, ShouldResemble, [4]float64{})
			So(s.FunctionBreakdown, ShouldNotBeNil)
			So(s.FunctionBreakdown, ShouldBeEmpty)
			So(s.RotationBreakdown, ShouldBeEmpty)
			So(s.FunctionAverages, ShouldBeEmpty)
			So(s.LastSubmission, ShouldBeNil)
			So(s.RecentSubmissions, ShouldBeEmpty)
		})
	})
}

func TestAggregateFunctions(t *testing.T) {
	Convey("Given three records across two functions", t, func() {
		records := []model.Record{
			rec("a", "Ann", model.FunctionPlanning, 3.0),
			rec("b", "Ben", model.FunctionPlanning, 4.0),
			rec("c", "Cid", model.FunctionReplenishment, 5.0),
		}
		records[1].ManagerName = "Carol"
		records[2].Rotation = "2"
		for i := range records {
			records[i].Timestamp = base.Add(time.Duration(i) * time.Hour)
		}
		before := append([]model.Record(nil), records...)

		s := stats.Aggregate(records)

		Convey("Then breakdowns and averages follow the observed values", func() {
			So(s.FunctionBreakdown, ShouldResemble, map[string]int{"Planning": 2, "Replenishment": 1})
			So(s.FunctionAverages["Planning"], ShouldAlmostEqual, 3.5, 1e-9)
			So(s.FunctionAverages["Replenishment"], ShouldAlmostEqual, 5.0, 1e-9)
			So(s.RotationBreakdown, ShouldResemble, map[string]int{"1": 2, "2": 1})
			So(s.AverageScore, ShouldAlmostEqual, 4.0, 1e-9)
		})

		Convey("Then the top performer is the highest score", func() {
			So(s.TopPerformer, ShouldEqual, "Cid")
			So(s.TopPerformerID, ShouldEqual, "c")
			So(s.TopScore, ShouldEqual, 5.0)
		})

		Convey("Then counts are reported", func() {
			So(s.TotalResponses, ShouldEqual, 3)
			So(s.TotalMDPs, ShouldEqual, 3)
			So(s.UniqueMDPs, ShouldEqual, 3)
			So(s.UniqueManagers, ShouldEqual, 2)
			So(s.UniqueFunctions, ShouldEqual, 2)
			So(s.AssessmentAreaAverages, ShouldResemble, [4]float64{4, 3, 2, 1})
		})

		Convey("Then recent submissions are newest first", func() {
			So(len(s.RecentSubmissions), ShouldEqual, 3)
			So(s.RecentSubmissions[0].ID, ShouldEqual, "c")
			So(s.RecentSubmissions[2].ID, ShouldEqual, "a")
			So(s.LastSubmission.Equal(base.Add(2*time.Hour)), ShouldBeTrue)
		})

		Convey("Then the input is left untouched", func() {
			So(records, ShouldResemble, before)
		})
	})
}

func TestAggregateTies(t *testing.T) {
	Convey("Given records tied on the top score", t, func() {
		records := []model.Record{
			rec("a", "Ann", model.FunctionPlanning, 2.0),
			rec("b", "Ben", model.FunctionPlanning, 4.5),
			rec("c", "Cid", model.FunctionPlanning, 4.5),
		}

		s := stats.Aggregate(records)

		Convey("Then the earliest record wins", func() {
			So(s.TopPerformer, ShouldEqual, "Ben")
			So(s.TopPerformerID, ShouldEqual, "b")
		})
	})

	Convey("Given the same participant in several rotations", t, func() {
		records := []model.Record{
			rec("a", "Ann", model.FunctionPlanning, 2.0),
			rec("b", "Ann", model.FunctionPlanning, 3.0),
		}
		s := stats.Aggregate(records)

		So(s.TotalMDPs, ShouldEqual, 2)
		So(s.UniqueMDPs, ShouldEqual, 1)
	})
}

func TestAggregateRecentLimit(t *testing.T) {
	Convey("Given more records than the recent window", t, func() {
		records := make([]model.Record, 0, 8)
		for i := 0; i < 8; i++ {
			records = append(records, rec(string(rune('a'+i)), "X", model.FunctionPlanning, 3))
		}

		s := stats.Aggregate(records)

		So(len(s.RecentSubmissions), ShouldEqual, stats.RecentLimit)
		So(s.RecentSubmissions[0].ID, ShouldEqual, "h")
		So(s.RecentSubmissions[4].ID, ShouldEqual, "d")
	})
}

func TestBucket(t *testing.T) {
	Convey("Given composite scores", t, func() {
		So(stats.Bucket(1.0), ShouldEqual, 0)
		So(stats.Bucket(1.49), ShouldEqual, 0)
		So(stats.Bucket(1.5), ShouldEqual, 1)
		So(stats.Bucket(3.05), ShouldEqual, 4)
		So(stats.Bucket(4.5), ShouldEqual, 7)
		So(stats.Bucket(5.0), ShouldEqual, 7)

		Convey("Then out-of-range scores are clamped", func() {
			So(stats.Bucket(0), ShouldEqual, 0)
			So(stats.Bucket(7.5), ShouldEqual, 7)
		})

		Convey("Then labels describe each bucket", func() {
			labels := stats.BucketLabels()
			So(labels[0], ShouldEqual, "1.0-1.5")
			So(labels[7], ShouldEqual, "4.5-5.0")
		})
	})
}

func TestDistributionSum(t *testing.T) {
	Convey("Given random record sets", t, func() {
		rng := rand.New(rand.NewSource(42))
		for round := 0; round < 50; round++ {
			n := rng.Intn(40)
			records := make([]model.Record, 0, n)
			for i := 0; i < n; i++ {
				r := model.Record{
					MDPName:       "m",
					Function:      model.Functions()[rng.Intn(4)],
					JobKnowledge:  1 + rng.Intn(5),
					QualityOfWork: 1 + rng.Intn(5),
					Communication: 1 + rng.Intn(5),
					Initiative:    1 + rng.Intn(5),
				}
				r.CompositeScore = scoring.Round(scoring.Composite(
					float64(r.JobKnowledge), float64(r.QualityOfWork),
					float64(r.Communication), float64(r.Initiative)))
				records = append(records, r)
			}

			s := stats.Aggregate(records)

			sum := 0
			for _, c := range s.ScoreDistribution {
				sum += c
			}
			So(sum, ShouldEqual, s.TotalResponses)
		}
	})
}

func TestCompareAndProfile(t *testing.T) {
	Convey("Given two participants", t, func() {
		records := []model.Record{
			rec("a", "Ann", model.FunctionPlanning, 3.05),
			rec("b", "Ben", model.FunctionPlanning, 5.0),
			rec("c", "Ann", model.FunctionDigitalMerch, 4.0),
		}
		records[1].JobKnowledge = 5

		Convey("When profiling one of them", func() {
			p := stats.Profile("Ann", records)

			Convey("Then only their records are included, in order", func() {
				So(p.Name, ShouldEqual, "Ann")
				So(len(p.Records), ShouldEqual, 2)
				So(p.Records[0].ID, ShouldEqual, "a")
				So(p.Records[1].ID, ShouldEqual, "c")
				So(p.Summary.TotalResponses, ShouldEqual, 2)
				So(p.Summary.TopPerformerID, ShouldEqual, "c")
			})
		})

		Convey("When profiling an unknown name", func() {
			p := stats.Profile("Zed", records)
			So(p.Records, ShouldBeEmpty)
			So(p.Summary.TopPerformer, ShouldEqual, stats.NoPerformer)
		})

		Convey("When comparing them", func() {
			c := stats.Compare(stats.Profile("Ann", records).Records, stats.Profile("Ben", records).Records)

			Convey("Then deltas are B minus A", func() {
				So(c.A.AverageScore, ShouldAlmostEqual, 3.525, 1e-9)
				So(c.B.AverageScore, ShouldAlmostEqual, 5.0, 1e-9)
				So(c.AverageDelta, ShouldAlmostEqual, 1.475, 1e-9)
				So(c.AreaDeltas[0], ShouldAlmostEqual, 1.0, 1e-9)
				So(c.AreaDeltas[3], ShouldAlmostEqual, 0, 1e-9)
			})
		})
	})
}

func TestAggregateAfterEmptyFilter(t *testing.T) {
	Convey("Given a filter that matches nothing", t, func() {
		records := []model.Record{
			rec("a", "Ann", model.FunctionPlanning, 3.0),
			rec("b", "Ben", model.FunctionPlanning, 4.0),
		}

		matched := filter.Apply(records, filter.Criteria{Manager: "Alice"})
		s := stats.Aggregate(matched)

		Convey("Then the summary is all zero with the sentinel performer", func() {
			So(matched, ShouldBeEmpty)
			So(s.TotalResponses, ShouldEqual, 0)
			So(s.AverageScore, ShouldEqual, 0)
			So(s.TopPerformer, ShouldEqual, stats.NoPerformer)
			So(s.ScoreDistribution, ShouldResemble, [stats.Buckets]int{})
		})
	})
}
