package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same trace id every time.
//
// Compiled queries carry the trace id in their first line, so a fixed id
// makes golden snapshots byte-stable.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed trace id generator.
//
// The id is typically set in the scenario YAML:
//
//	query_id: "test-query-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-query-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-query-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements ir.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator returns "<prefix>-1", "<prefix>-2", ... and can be
// reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceIDGenerator creates a generator starting at 0. The first call
// to Generate returns "<prefix>-1". An empty prefix becomes "query".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "query"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate increments the sequence and returns the next id.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Current returns the current sequence number without incrementing.
func (g *SequenceIDGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset resets the sequence to 0.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
