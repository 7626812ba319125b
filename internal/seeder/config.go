// Package seeder generates synthetic MDP evaluations and replays them
// against a running survey service.
package seeder

import (
	"time"

	"github.com/okian/mdpsurvey/internal/domain/model"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Count      int           // Number of evaluations to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; 0 picks one from the clock
	Replays    int           // Times each evaluation is re-sent with its key
	InputFile  string        // Submit evaluations from this file instead of generating
	OutputFile string        // Write the generated evaluations here
	Verify     bool          // Check /api/survey-stats after submitting
}

// Evaluation is one generated submission and the idempotency key it is
// sent with.
type Evaluation struct {
	Key        string           `json:"key"`
	Submission model.Submission `json:"submission"`
}

// ack is the subset of the submit response the seeder reads.
type ack struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// surveyStats is the subset of /api/survey-stats the seeder verifies.
type surveyStats struct {
	TotalResponses    int       `json:"totalResponses"`
	AverageScore      float64   `json:"averageScore"`
	ScoreDistribution []int     `json:"scoreDistribution"`
	TopPerformer      string    `json:"topPerformer"`
	TopScore          float64   `json:"topScore"`
	AreaAverages      []float64 `json:"assessmentAreaAverages"`
}

// Stats holds run statistics.
type Stats struct {
	Generated   int
	Submitted   int
	Created     int
	Duplicate   int
	Rejected    int
	Failed      int
	BeforeTotal int
	AfterTotal  int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
