// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/okian/mdpsurvey/internal/adapters/repository"
	"github.com/okian/mdpsurvey/internal/domain/dedupe"
	"github.com/okian/mdpsurvey/internal/domain/export"
	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/internal/domain/stats"
	"github.com/okian/mdpsurvey/pkg/logger"
	"github.com/okian/mdpsurvey/pkg/metrics"
)

// ReportTitle heads the PDF export.
const ReportTitle = "MDP Evaluation Report"

// Service implements the API dependencies for the survey system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	summaries *cache.Cache

	// Configuration
	dataFile   string
	dedupeSize int
	cacheTTL   time.Duration
	location   *time.Location

	// State
	started    bool
	startedAt  time.Time
	generation atomic.Uint64 // bumped on every mutation
	submitMu   sync.Mutex    // serialises idempotency check and append
	cacheMu    sync.Mutex    // orders summary cache writes against invalidate

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataFile:   "data/data.json",
		dedupeSize: 10000,
		cacheTTL:   30 * time.Second,
		location:   time.UTC,
		logger:     nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting survey service...")

	if s.store == nil {
		store, err := repository.NewJSONStore(ctx, s.dataFile,
			repository.WithLocation(s.location),
			repository.WithLogger(s.logger.Named("store")),
		)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using json store", logger.String("path", store.Path()))
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.summaries = cache.New(s.cacheTTL, 2*s.cacheTTL)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "survey service started",
		logger.Int("records", s.store.Count(ctx)),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("statsCacheTTL", s.cacheTTL),
	)

	return nil
}

// Stop shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping survey service...")

	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	if s.summaries != nil {
		s.summaries.Flush()
	}

	s.started = false
	s.logger.Info(context.Background(), "survey service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Submit validates sub, computes its composite score and stores it.
// A non-empty key that was already used returns the record it created with
// duplicate set to true.
func (s *Service) Submit(ctx context.Context, key string, sub model.Submission) (model.Record, bool, error) {
	if err := s.ready(); err != nil {
		return model.Record{}, false, err
	}

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		metrics.RecordRejectedSubmission("validation")
		s.logger.Warn(ctx, "rejected submission",
			logger.String("mdpName", sub.MDPName),
			logger.Error(err),
		)
		return model.Record{}, false, err
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if key != "" {
		if id, ok := s.deduper.Lookup(ctx, key); ok {
			existing, err := s.store.Get(ctx, id)
			if err == nil {
				metrics.RecordDuplicateSubmission()
				s.logger.Debug(ctx, "duplicate submission",
					logger.String("idempotencyKey", key),
					logger.String("id", id),
				)
				return existing, true, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return model.Record{}, false, err
			}
			s.deduper.Forget(ctx, key)
		}
	}

	stored, err := s.store.Append(ctx, model.NewRecord(sub))
	if err != nil {
		s.logger.Error(ctx, "failed to store submission",
			logger.String("mdpName", sub.MDPName),
			logger.Error(err),
		)
		return model.Record{}, false, err
	}
	s.invalidate()

	if key != "" {
		s.deduper.Record(ctx, key, stored.ID)
		metrics.UpdateIdempotencyKeys(s.deduper.Size())
	}
	metrics.RecordSubmission(stored.CompositeScore)

	s.logger.Info(ctx, "stored evaluation",
		logger.String("id", stored.ID),
		logger.String("mdpName", stored.MDPName),
		logger.String("function", string(stored.Function)),
		logger.Float64("compositeScore", stored.CompositeScore),
	)
	return stored, false, nil
}

// List returns the records matching c in insertion order.
func (s *Service) List(ctx context.Context, c filter.Criteria) ([]model.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(records, c), nil
}

// Delete removes the record with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug(ctx, "delete of unknown record", logger.String("id", id))
		} else {
			s.logger.Error(ctx, "failed to delete record", logger.String("id", id), logger.Error(err))
		}
		return err
	}
	s.invalidate()
	s.deduper.ForgetRecord(ctx, id)
	metrics.UpdateIdempotencyKeys(s.deduper.Size())
	metrics.RecordDeletion()

	s.logger.Info(ctx, "deleted evaluation", logger.String("id", id))
	return nil
}

// Summary aggregates the records matching c. Results are cached per
// criteria until the next mutation or TTL expiry.
func (s *Service) Summary(ctx context.Context, c filter.Criteria) (stats.Summary, error) {
	if err := s.ready(); err != nil {
		return stats.Summary{}, err
	}

	key := c.Key()
	if cached, found := s.summaries.Get(key); found {
		if summary, ok := cached.(stats.Summary); ok {
			metrics.RecordStatsCacheHit()
			return summary, nil
		}
	}
	metrics.RecordStatsCacheMiss()

	gen := s.generation.Load()
	records, err := s.List(ctx, c)
	if err != nil {
		return stats.Summary{}, err
	}
	summary := stats.Aggregate(records)

	s.storeSummary(key, gen, summary)
	return summary, nil
}

// storeSummary caches summary unless a mutation happened after gen was read.
func (s *Service) storeSummary(key string, gen uint64, summary stats.Summary) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.summaries.Set(key, summary, cache.DefaultExpiration)
	return true
}

// Options lists the distinct filter values present in the data.
func (s *Service) Options(ctx context.Context) (filter.Options, error) {
	records, err := s.List(ctx, filter.Criteria{})
	if err != nil {
		return filter.Options{}, err
	}
	return filter.OptionsOf(records), nil
}

// Profile returns every evaluation of one participant.
func (s *Service) Profile(ctx context.Context, name string) (stats.MDPProfile, error) {
	records, err := s.List(ctx, filter.Criteria{})
	if err != nil {
		return stats.MDPProfile{}, err
	}
	p := stats.Profile(name, records)
	if len(p.Records) == 0 {
		return stats.MDPProfile{}, fmt.Errorf("%w: %s", ErrUnknownMDP, name)
	}
	return p, nil
}

// Compare sets the evaluations of two participants side by side.
func (s *Service) Compare(ctx context.Context, a, b string) (stats.Comparison, error) {
	records, err := s.List(ctx, filter.Criteria{})
	if err != nil {
		return stats.Comparison{}, err
	}
	pa := stats.Profile(a, records)
	pb := stats.Profile(b, records)
	if len(pa.Records) == 0 {
		return stats.Comparison{}, fmt.Errorf("%w: %s", ErrUnknownMDP, a)
	}
	if len(pb.Records) == 0 {
		return stats.Comparison{}, fmt.Errorf("%w: %s", ErrUnknownMDP, b)
	}
	return stats.Compare(pa.Records, pb.Records), nil
}

// ExportCSV writes the records matching c as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, c filter.Criteria) error {
	records, err := s.List(ctx, c)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, records); err != nil {
		s.logger.Error(ctx, "csv export failed", logger.Error(err))
		return err
	}
	metrics.RecordExport("csv")
	return nil
}

// ExportPDF writes a printable report of the records matching c.
func (s *Service) ExportPDF(ctx context.Context, w io.Writer, c filter.Criteria) error {
	records, err := s.List(ctx, c)
	if err != nil {
		return err
	}
	if err := export.WritePDF(w, ReportTitle, stats.Aggregate(records), records, time.Now()); err != nil {
		s.logger.Error(ctx, "pdf export failed", logger.Error(err))
		return err
	}
	metrics.RecordExport("pdf")
	return nil
}

// Count returns the number of stored records, or 0 before Start.
func (s *Service) Count(ctx context.Context) int {
	if s.ready() != nil {
		return 0
	}
	return s.store.Count(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":    s.started,
		"dataFile":   s.dataFile,
		"dedupeSize": s.dedupeSize,
		"cacheTTL":   s.cacheTTL.String(),
	}

	if s.started {
		records := s.store.Count(ctx)
		keys := s.deduper.Size()

		out["records"] = records
		out["idempotencyKeys"] = keys
		out["cachedSummaries"] = s.summaries.ItemCount()
		out["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		metrics.UpdateRecordsTotal(records)
		metrics.UpdateIdempotencyKeys(keys)
	}

	return out
}

// invalidate drops every cached summary after a mutation.
func (s *Service) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation.Add(1)
	s.summaries.Flush()
}
