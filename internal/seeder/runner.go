package seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/mdpsurvey/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run checks the service, submits evaluations and optionally verifies the
// resulting statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("seeder")

	log.Info(ctx, "starting seeding run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verify", cfg.Verify))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := c.getJSON(ctx, "/health", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	evals, err := evaluations(cfg)
	if err != nil {
		return stats, err
	}
	stats.Generated = len(evals)

	if cfg.OutputFile != "" && cfg.InputFile == "" {
		if err := WriteFile(cfg.OutputFile, evals); err != nil {
			log.Warn(ctx, "failed to save evaluations", logger.Error(err))
		}
	}

	before, err := fetchStats(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("baseline statistics: %w", err)
	}
	stats.BeforeTotal = before.TotalResponses

	submitAll(ctx, cfg, c, evals, stats)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("submission interrupted: %w", err)
	}

	after, err := fetchStats(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("final statistics: %w", err)
	}
	stats.AfterTotal = after.TotalResponses

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if cfg.Verify {
		if err := verifyStats(ctx, before, after, stats); err != nil {
			return stats, err
		}
	}

	log.Info(ctx, "seeding run completed",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("totalBefore", stats.BeforeTotal),
		logger.Int("totalAfter", stats.AfterTotal),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func evaluations(cfg *Config) ([]Evaluation, error) {
	if cfg.InputFile != "" {
		return ReadFile(cfg.InputFile)
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", cfg.Count)
	}
	return NewGenerator(cfg.Seed).Generate(cfg.Count), nil
}

// WriteFile saves evals as an indented JSON array.
func WriteFile(path string, evals []Evaluation) error {
	if len(evals) == 0 {
		return fmt.Errorf("no evaluations to save")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(evals, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal evaluations: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads evaluations saved by WriteFile.
func ReadFile(path string) ([]Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var evals []Evaluation
	if err := json.Unmarshal(data, &evals); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return evals, nil
}
