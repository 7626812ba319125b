package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets how many idempotency keys are remembered.
// If maxSize > 0 the oldest key is evicted once the limit is reached.
// If maxSize <= 0 keys are kept until forgotten.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
