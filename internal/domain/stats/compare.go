package stats

import "github.com/okian/mdpsurvey/internal/domain/model"

// Comparison sets two record groups side by side. Deltas are B minus A.
type Comparison struct {
	A            Summary    `json:"a"`
	B            Summary    `json:"b"`
	AverageDelta float64    `json:"averageDelta"`
	AreaDeltas   [4]float64 `json:"areaDeltas"`
}

// Compare aggregates both groups and reports how B differs from A.
func Compare(a, b []model.Record) Comparison {
	c := Comparison{
		A: Aggregate(a),
		B: Aggregate(b),
	}
	c.AverageDelta = c.B.AverageScore - c.A.AverageScore
	for k := range c.AreaDeltas {
		c.AreaDeltas[k] = c.B.AssessmentAreaAverages[k] - c.A.AssessmentAreaAverages[k]
	}
	return c
}

// MDPProfile is the individual view of one participant.
type MDPProfile struct {
	Name    string         `json:"name"`
	Records []model.Record `json:"records"`
	Summary Summary        `json:"summary"`
}

// Profile selects the records of name, in input order, and summarises them.
func Profile(name string, records []model.Record) MDPProfile {
	own := make([]model.Record, 0)
	for _, r := range records {
		if r.MDPName == name {
			own = append(own, r)
		}
	}
	return MDPProfile{
		Name:    name,
		Records: own,
		Summary: Aggregate(own),
	}
}
