package testutil

import (
	"fmt"
	"sync"
)

// CountingIDGenerator yields "<prefix>-1", "<prefix>-2", ... and never runs
// out, unlike dflow.SequenceGenerator.
//
// It implements dflow.IDGenerator and engine.RunIDGenerator, so golden
// output does not depend on UUIDs.
type CountingIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingIDGenerator creates a generator. An empty prefix yields "id".
func NewCountingIDGenerator(prefix string) *CountingIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &CountingIDGenerator{prefix: prefix}
}

// Generate returns the next identifier.
func (g *CountingIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *CountingIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
