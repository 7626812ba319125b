// Package stats computes the dashboard summary over a record set.
//
// Every function here is pure: it reads a snapshot slice, never modifies it
// and returns a freshly built result. Empty input yields zero values and the
// NoPerformer sentinel rather than an error.
package stats

import (
	"math"
	"strconv"
	"time"

	"github.com/okian/mdpsurvey/internal/domain/model"
)

// NoPerformer is reported as TopPerformer when there are no records.
const NoPerformer = "N/A"

// Histogram layout: buckets of BucketWidth starting at BucketFloor.
const (
	Buckets     = 8
	BucketFloor = 1.0
	BucketWidth = 0.5
)

// RecentLimit is the number of records reported in RecentSubmissions.
const RecentLimit = 5

// Summary is the aggregate view consumed by the dashboard, the stats
// endpoint and the exports.
type Summary struct {
	TotalResponses         int                `json:"totalResponses"`
	TotalMDPs              int                `json:"totalMdps"`
	UniqueMDPs             int                `json:"uniqueMDPs"`
	UniqueManagers         int                `json:"uniqueManagers"`
	UniqueFunctions        int                `json:"uniqueFunctions"`
	AverageScore           float64            `json:"averageScore"`
	TopPerformer           string             `json:"topPerformer"`
	TopPerformerID         string             `json:"topPerformerId,omitempty"`
	TopScore               float64            `json:"topScore"`
	AssessmentAreaAverages [4]float64         `json:"assessmentAreaAverages"`
	FunctionBreakdown      map[string]int     `json:"functionBreakdown"`
	RotationBreakdown      map[string]int     `json:"rotationBreakdown"`
	FunctionAverages       map[string]float64 `json:"functionAverages"`
	ScoreDistribution      [Buckets]int       `json:"scoreDistribution"`
	LastSubmission         *time.Time         `json:"lastSubmission"`
	RecentSubmissions      []model.Record     `json:"recentSubmissions"`
}

// Aggregate builds the summary of records.
func Aggregate(records []model.Record) Summary {
	s := Summary{
		TotalResponses:    len(records),
		TotalMDPs:         len(records),
		TopPerformer:      NoPerformer,
		FunctionBreakdown: map[string]int{},
		RotationBreakdown: map[string]int{},
		FunctionAverages:  map[string]float64{},
		RecentSubmissions: []model.Record{},
	}
	if len(records) == 0 {
		return s
	}

	mdps := map[string]struct{}{}
	managers := map[string]struct{}{}
	functionTotals := map[string]float64{}
	var (
		scoreTotal float64
		areaTotals [4]float64
		top        = -1
		last       time.Time
	)

	for i, r := range records {
		mdps[r.MDPName] = struct{}{}
		managers[r.ManagerName] = struct{}{}

		fn := string(r.Function)
		s.FunctionBreakdown[fn]++
		functionTotals[fn] += r.CompositeScore
		s.RotationBreakdown[r.Rotation]++

		scoreTotal += r.CompositeScore
		for k, v := range r.AreaRatings() {
			areaTotals[k] += float64(v)
		}

		// strict comparison keeps the earliest record on ties
		if top < 0 || r.CompositeScore > records[top].CompositeScore {
			top = i
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
		s.ScoreDistribution[Bucket(r.CompositeScore)]++
	}

	n := float64(len(records))
	s.UniqueMDPs = len(mdps)
	s.UniqueManagers = len(managers)
	s.UniqueFunctions = len(s.FunctionBreakdown)
	s.AverageScore = scoreTotal / n
	for k := range areaTotals {
		s.AssessmentAreaAverages[k] = areaTotals[k] / n
	}
	for fn, total := range functionTotals {
		s.FunctionAverages[fn] = total / float64(s.FunctionBreakdown[fn])
	}

	s.TopPerformer = records[top].MDPName
	s.TopPerformerID = records[top].ID
	s.TopScore = records[top].CompositeScore

	if !last.IsZero() {
		s.LastSubmission = &last
	}
	for i := len(records) - 1; i >= 0 && len(s.RecentSubmissions) < RecentLimit; i-- {
		s.RecentSubmissions = append(s.RecentSubmissions, records[i])
	}
	return s
}

// Bucket returns the histogram index of a composite score. Scores outside
// [1,5] land in the nearest end bucket so that bucket counts always sum to
// the record count.
func Bucket(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	f := math.Floor((score - BucketFloor) / BucketWidth)
	if f < 0 {
		return 0
	}
	if f > Buckets-1 {
		return Buckets - 1
	}
	return int(f)
}

// BucketLabels names each histogram bucket, e.g. "1.0-1.5".
func BucketLabels() [Buckets]string {
	var labels [Buckets]string
	for i := range labels {
		lo := BucketFloor + float64(i)*BucketWidth
		labels[i] = strconv.FormatFloat(lo, 'f', 1, 64) + "-" + strconv.FormatFloat(lo+BucketWidth, 'f', 1, 64)
	}
	return labels
}
