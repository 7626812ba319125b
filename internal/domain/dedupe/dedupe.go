// Package dedupe tracks client idempotency keys so a replayed submission
// resolves to the record it already created.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper remembers which record an idempotency key produced.
type Deduper interface {
	// Lookup returns the record id stored for key, if any.
	Lookup(ctx context.Context, key string) (recordID string, ok bool)

	// Record stores key -> recordID. An existing key is left unchanged and
	// Record returns false.
	Record(ctx context.Context, key, recordID string) bool

	// Forget removes key, e.g. when its record was deleted.
	Forget(ctx context.Context, key string)

	// ForgetRecord removes every key that points at recordID.
	ForgetRecord(ctx context.Context, recordID string)

	Size() int64
}

// node is one entry of the insertion-ordered list.
type node struct {
	key      string
	recordID string
	prev     *node
	next     *node
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list ordered by
// insertion. In bounded mode the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	entries map[string]*node
	head    *node // oldest
	tail    *node // newest
	maxSize int   // 0 or negative = unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.entries = make(map[string]*node)
	return d
}

func (d *inMemoryDeduper) Lookup(_ context.Context, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[key]
	if !ok {
		return "", false
	}
	return n.recordID, true
}

func (d *inMemoryDeduper) Record(_ context.Context, key, recordID string) bool {
	if key == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entries[key]; exists {
		return false
	}
	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := &node{key: key, recordID: recordID, prev: d.tail}
	if d.tail != nil {
		d.tail.next = n
	} else {
		d.head = n
	}
	d.tail = n
	d.entries[key] = n
	d.size.Add(1)
	return true
}

func (d *inMemoryDeduper) Forget(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[key]; ok {
		d.unlink(n)
	}
}

func (d *inMemoryDeduper) ForgetRecord(_ context.Context, recordID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for n := d.head; n != nil; {
		next := n.next
		if n.recordID == recordID {
			d.unlink(n)
		}
		n = next
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// evictOldest drops the head of the list. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.head != nil {
		d.unlink(d.head)
	}
}

// unlink removes n from the list and the map. Must be called with d.mu held.
func (d *inMemoryDeduper) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
	delete(d.entries, n.key)
	d.size.Add(-1)
}
