package service

import (
	"time"

	"github.com/okian/mdpsurvey/internal/adapters/repository"
	"github.com/okian/mdpsurvey/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataFile sets the JSON data file opened on Start.
func WithDataFile(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dataFile = path
		}
	}
}

// WithStore injects a ready store; Start will not open the data file.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStatsCacheTTL sets how long a computed summary may be served from cache.
func WithStatsCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithLocation sets the display time zone of new records.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
