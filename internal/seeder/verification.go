package seeder

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/mdpsurvey/pkg/logger"
)

// ErrVerification reports that the service state does not match the run.
var ErrVerification = errors.New("verification failed")

// scoreEpsilon is the tolerance for comparing reported scores.
const scoreEpsilon = 0.01

// fetchStats reads the unfiltered survey statistics.
func fetchStats(ctx context.Context, c *client) (surveyStats, error) {
	var s surveyStats
	if err := c.getJSON(ctx, "/api/survey-stats", &s); err != nil {
		return surveyStats{}, err
	}
	return s, nil
}

// verifyStats checks the service totals after a run against the baseline
// captured before it. It assumes no other writers were active.
func verifyStats(ctx context.Context, before, after surveyStats, stats *Stats) error {
	var problems []error

	if want := before.TotalResponses + stats.Created; after.TotalResponses != want {
		problems = append(problems, fmt.Errorf("totalResponses is %d, want %d (%d before + %d created)",
			after.TotalResponses, want, before.TotalResponses, stats.Created))
	}

	sum := 0
	for _, n := range after.ScoreDistribution {
		sum += n
	}
	if sum != after.TotalResponses {
		problems = append(problems, fmt.Errorf("scoreDistribution sums to %d, want %d", sum, after.TotalResponses))
	}

	if after.TotalResponses > 0 && (after.AverageScore < 1-scoreEpsilon || after.AverageScore > 5+scoreEpsilon) {
		problems = append(problems, fmt.Errorf("averageScore %.3f outside [1, 5]", after.AverageScore))
	}
	if after.TopScore+scoreEpsilon < after.AverageScore {
		problems = append(problems, fmt.Errorf("topScore %.3f below averageScore %.3f", after.TopScore, after.AverageScore))
	}
	for i, avg := range after.AreaAverages {
		if math.IsNaN(avg) || avg < 0 || avg > 5+scoreEpsilon {
			problems = append(problems, fmt.Errorf("assessment area %d average %.3f outside [0, 5]", i, avg))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrVerification, errors.Join(problems...))
	}

	logger.Named("seeder").Info(ctx, "service statistics verified",
		logger.Int("totalResponses", after.TotalResponses),
		logger.Float64("averageScore", after.AverageScore),
		logger.String("topPerformer", after.TopPerformer))
	return nil
}
