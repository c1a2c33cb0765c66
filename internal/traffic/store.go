// internal/traffic/store.go

// Package traffic is the out-of-band capture channel between the browser
// tabs and downstream consumers. Everything a tab loads while the crawler
// dispatches events ends up here; the crawler itself never reads it.
package traffic

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one captured request/response pair.
type Record struct {
	ID          string
	TabID       string
	URL         string
	Method      string
	StatusCode  int
	ContentType string
	Body        []byte
	CapturedAt  time.Time
}

// Store accumulates captured records and streams them to one consumer.
// Writes never block: if the consumer falls behind, records are still
// retained in memory and only the stream notification is dropped.
type Store struct {
	mu      sync.RWMutex
	records []Record
	stream  chan Record
	closed  bool
}

// NewStore creates a store with the given stream buffer size.
func NewStore(buffer int) *Store {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Store{
		stream: make(chan Record, buffer),
	}
}

// Add captures a record, assigning it an ID and timestamp.
func (s *Store) Add(rec Record) Record {
	rec.ID = uuid.NewString()
	rec.CapturedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rec
	}
	s.records = append(s.records, rec)

	select {
	case s.stream <- rec:
	default:
		// Consumer is behind; the record remains available via Records.
	}
	return rec
}

// Stream returns the channel of captured records. Closed by Close.
func (s *Store) Stream() <-chan Record {
	return s.stream
}

// Records returns a snapshot of everything captured so far, in order.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of captured records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the stream. Further Adds are discarded.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.stream)
}
