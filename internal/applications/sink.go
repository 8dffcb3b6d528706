package applications

import (
	"context"
	"sync"
)

// RecordSink appends one record per application to a durable tabular
// store. A single call is one atomic append; there is no
// read-modify-write, so concurrent submissions never conflict.
type RecordSink interface {
	Append(ctx context.Context, record ApplicationRecord) error
}

// MemorySink is an in-memory RecordSink for development and tests.
type MemorySink struct {
	mu      sync.RWMutex
	records []ApplicationRecord
}

// NewMemorySink constructs a MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores the record in memory.
func (s *MemorySink) Append(ctx context.Context, record ApplicationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of everything appended so far.
func (s *MemorySink) Records() []ApplicationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ApplicationRecord(nil), s.records...)
}

var _ RecordSink = (*MemorySink)(nil)
