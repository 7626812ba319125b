package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/internal/domain/scoring"
	"github.com/okian/mdpsurvey/pkg/logger"
	"github.com/okian/mdpsurvey/pkg/metrics"
)

// SchemaVersion is written to the metadata envelope of the data file.
const SchemaVersion = "1.0.0"

// IDPrefix starts every generated record id.
const IDPrefix = "mdp_"

const dataFileMode = 0o644

// envelope is the on-disk layout of the data file.
type envelope struct {
	Responses []model.Record `json:"responses"`
	Metadata  metadata       `json:"metadata"`
}

type metadata struct {
	Created        time.Time `json:"created"`
	LastUpdated    time.Time `json:"lastUpdated"`
	Version        string    `json:"version"`
	TotalResponses int       `json:"totalResponses"`
}

// JSONStore keeps every record in memory and rewrites the whole data file on
// each mutation. Mutations are serialised; the file is replaced atomically so
// a failed write leaves the previous contents intact.
type JSONStore struct {
	mu      sync.RWMutex
	path    string
	records []model.Record
	issued  map[string]struct{} // every id loaded or assigned, so ids are never reused
	created time.Time

	now   func() time.Time
	newID func() string
	loc   *time.Location
	log   logger.Logger
}

// NewJSONStore opens the data file at path, creating it with an empty
// envelope when it does not exist. Both the envelope layout and a bare JSON
// array of records are accepted.
func NewJSONStore(ctx context.Context, path string, opts ...Option) (*JSONStore, error) {
	s := &JSONStore{
		path:   path,
		issued: make(map[string]struct{}),
		now:    time.Now,
		newID:  func() string { return IDPrefix + uuid.NewString() },
		loc:    time.UTC,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	metrics.UpdateRecordsTotal(len(s.records))
	return s, nil
}

// Path returns the data file location.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("%w: create data directory: %w", ErrStorage, err)
		}
		s.created = s.now().UTC()
		s.records = []model.Record{}
		if err := s.persist(s.records); err != nil {
			return err
		}
		s.log.Info(ctx, "created data file", logger.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrStorage, s.path, err)
	}

	records, created, err := decode(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
	}
	if created.IsZero() {
		created = s.now().UTC()
	}

	backfilled := 0
	for i := range records {
		if records[i].CompositeScore == 0 {
			if backfill(&records[i]) {
				backfilled++
			}
		}
		s.issued[records[i].ID] = struct{}{}
	}

	s.records = records
	s.created = created
	s.log.Info(ctx, "loaded data file",
		logger.String("path", s.path),
		logger.Int("records", len(records)),
		logger.Int("backfilled", backfilled))
	return nil
}

// decode accepts the envelope layout, a bare array, or an empty file.
func decode(data []byte) ([]model.Record, time.Time, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []model.Record{}, time.Time{}, nil
	}
	if data[0] == '[' {
		var records []model.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, time.Time{}, err
		}
		if records == nil {
			records = []model.Record{}
		}
		return records, time.Time{}, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, time.Time{}, err
	}
	if env.Responses == nil {
		env.Responses = []model.Record{}
	}
	return env.Responses, env.Metadata.Created, nil
}

// backfill computes a missing composite score for records written without one.
func backfill(r *model.Record) bool {
	ratings := r.AreaRatings()
	for _, v := range ratings {
		if v < model.MinRating || v > model.MaxRating {
			return false
		}
	}
	r.CompositeScore = scoring.Round(scoring.Composite(
		float64(ratings[0]), float64(ratings[1]), float64(ratings[2]), float64(ratings[3])))
	return true
}

// List returns every record in insertion order.
func (s *JSONStore) List(_ context.Context) ([]model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Get returns the record with id.
func (s *JSONStore) Get(_ context.Context, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	metrics.RecordErrorByComponent("repository", "not_found")
	return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Append stamps rec with a fresh id and the current time and persists it.
func (s *JSONStore) Append(ctx context.Context, rec model.Record) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID()
	rec = rec.Stamp(id, s.now(), s.loc)

	next := make([]model.Record, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, rec)

	if err := s.persist(next); err != nil {
		s.log.Error(ctx, "append failed, previous data kept", logger.String("id", id), logger.Error(err))
		return model.Record{}, err
	}
	s.records = next
	s.issued[id] = struct{}{}
	metrics.UpdateRecordsTotal(len(s.records))
	return rec, nil
}

// Delete removes the record with id and persists the remaining set.
func (s *JSONStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make([]model.Record, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)

	if err := s.persist(next); err != nil {
		s.log.Error(ctx, "delete failed, previous data kept", logger.String("id", id), logger.Error(err))
		return err
	}
	s.records = next
	metrics.UpdateRecordsTotal(len(s.records))
	return nil
}

// Count returns the number of stored records.
func (s *JSONStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// nextID returns an id that has never been issued. Must be called with s.mu held.
func (s *JSONStore) nextID() string {
	const attempts = 8
	for i := 0; i < attempts; i++ {
		id := s.newID()
		if _, taken := s.issued[id]; !taken && id != "" {
			return id
		}
	}
	return IDPrefix + uuid.NewString()
}

// persist writes records to a temp file next to the data file, syncs it and
// renames it into place.
func (s *JSONStore) persist(records []model.Record) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
		if err != nil {
			metrics.RecordStoreWriteError()
			metrics.RecordErrorByComponent("repository", "write_failed")
		}
	}()

	env := envelope{
		Responses: records,
		Metadata: metadata{
			Created:        s.created,
			LastUpdated:    s.now().UTC(),
			Version:        SchemaVersion,
			TotalResponses: len(records),
		},
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: serialize: %w", ErrStorage, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorage, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write temp file: %w", ErrStorage, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync temp file: %w", ErrStorage, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrStorage, err)
	}
	if err = os.Chmod(tmpPath, dataFileMode); err != nil {
		return fmt.Errorf("%w: chmod temp file: %w", ErrStorage, err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: replace data file: %w", ErrStorage, err)
	}
	return nil
}
