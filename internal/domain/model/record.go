package model

import (
	"time"

	"github.com/okian/mdpsurvey/internal/domain/scoring"
)

// submittedAtLayout renders the creation instant for people reading exports.
const submittedAtLayout = "01/02/2006, 03:04:05 PM"

// Record is one stored evaluation. It is immutable once appended; the only
// other mutation is deletion by ID.
type Record struct {
	ID                string    `json:"id"`
	MDPName           string    `json:"mdpName"`
	Function          Function  `json:"function"`
	ManagerName       string    `json:"managerName"`
	Rotation          string    `json:"rotation"`
	JobKnowledge      int       `json:"jobKnowledge"`
	QualityOfWork     int       `json:"qualityOfWork"`
	Communication     int       `json:"communication"`
	Initiative        int       `json:"initiative"`
	FunctionSpecific1 *int      `json:"functionSpecific1"`
	FunctionSpecific2 *int      `json:"functionSpecific2"`
	CompositeScore    float64   `json:"compositeScore"`
	Timestamp         time.Time `json:"timestamp"`
	SubmittedAt       string    `json:"submittedAt,omitempty"`
}

// NewRecord builds a record from a validated submission. The composite score
// is computed and rounded here, once; readers never recompute it. ID and
// timestamp are left for the store to assign.
func NewRecord(s Submission) Record {
	return Record{
		MDPName:           s.MDPName,
		Function:          s.Function,
		ManagerName:       s.ManagerName,
		Rotation:          string(s.Rotation),
		JobKnowledge:      int(s.JobKnowledge),
		QualityOfWork:     int(s.QualityOfWork),
		Communication:     int(s.Communication),
		Initiative:        int(s.Initiative),
		FunctionSpecific1: optionalInt(s.FunctionSpecific1),
		FunctionSpecific2: optionalInt(s.FunctionSpecific2),
		CompositeScore: scoring.Round(scoring.Composite(
			float64(s.JobKnowledge),
			float64(s.QualityOfWork),
			float64(s.Communication),
			float64(s.Initiative),
		)),
	}
}

// Stamp sets the identity and creation instant of r. loc controls the
// SubmittedAt display string; nil means UTC.
func (r Record) Stamp(id string, ts time.Time, loc *time.Location) Record {
	if loc == nil {
		loc = time.UTC
	}
	r.ID = id
	r.Timestamp = ts.UTC()
	r.SubmittedAt = ts.In(loc).Format(submittedAtLayout)
	return r
}

// AreaRatings returns the four core ratings in the fixed reporting order:
// job knowledge, quality of work, communication, initiative.
func (r Record) AreaRatings() [4]int {
	return [4]int{r.JobKnowledge, r.QualityOfWork, r.Communication, r.Initiative}
}

// Band is the display classification of the stored composite score.
func (r Record) Band() string {
	return scoring.Band(r.CompositeScore)
}

// AreaNames labels AreaRatings in reports.
func AreaNames() [4]string {
	return [4]string{
		"Job Knowledge",
		"Quality of Work",
		"Communication Skills & Teamwork",
		"Initiative & Productivity",
	}
}
