package repository

import (
	"time"

	"github.com/okian/mdpsurvey/pkg/logger"
)

// Option applies a configuration option to the JSONStore.
type Option func(*JSONStore)

// WithClock sets the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *JSONStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the source of record ids.
func WithIDGenerator(next func() string) Option {
	return func(s *JSONStore) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithLocation sets the time zone of the submittedAt display string.
func WithLocation(loc *time.Location) Option {
	return func(s *JSONStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *JSONStore) {
		if l != nil {
			s.log = l
		}
	}
}
