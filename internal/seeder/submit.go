package seeder

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/okian/mdpsurvey/pkg/logger"
)

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeFailed
)

// submitAll sends every evaluation, plus cfg.Replays resends of each,
// through a pool of cfg.Workers submitters.
func submitAll(ctx context.Context, cfg *Config, c *client, evals []Evaluation, stats *Stats) {
	log := logger.Named("seeder")
	workers := max(1, min(cfg.Workers, len(evals)))
	log.Info(ctx, "submitting evaluations",
		logger.Int("count", len(evals)),
		logger.Int("workers", workers),
		logger.Int("replays", cfg.Replays))

	var submitted, created, duplicate, rejected, failed atomic.Int64

	jobs := make(chan Evaluation, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range jobs {
				if ctx.Err() != nil {
					return
				}
				submitted.Add(1)
				switch submitOne(ctx, c, ev) {
				case outcomeCreated:
					created.Add(1)
				case outcomeDuplicate:
					duplicate.Add(1)
				case outcomeRejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	// Round 0 sends every evaluation; later rounds replay them with the same keys.
	go func() {
		defer close(jobs)
		for round := 0; round <= cfg.Replays; round++ {
			for _, ev := range evals {
				select {
				case <-ctx.Done():
					return
				case jobs <- ev:
				}
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Created = int(created.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())

	log.Info(ctx, "submission completed",
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed))
}

func submitOne(ctx context.Context, c *client, ev Evaluation) outcome {
	status, body, err := c.postJSON(ctx, "/api/survey-responses", ev.Key, ev.Submission)
	if err != nil {
		logger.Named("seeder").Debug(ctx, "submit failed", logger.String("key", ev.Key), logger.Error(err))
		return outcomeFailed
	}

	switch status {
	case http.StatusCreated:
		return outcomeCreated
	case http.StatusOK:
		var a ack
		if err := json.Unmarshal(body, &a); err == nil && !a.Duplicate {
			return outcomeCreated
		}
		return outcomeDuplicate
	case http.StatusBadRequest:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
