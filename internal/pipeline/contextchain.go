package pipeline

import (
	"sync"
	"time"

	"github.com/sells-group/research-agent/internal/model"
)

// defaultChainCap bounds how many prior runs the session remembers.
const defaultChainCap = 10

// ContextChain is the session memory for follow-up questions: a bounded
// FIFO of digests from earlier runs. Only digests are kept, never article
// bodies, so the chain stays small no matter how long the session runs.
type ContextChain struct {
	mu      sync.Mutex
	entries []model.ContextEntry
	cap     int
}

// NewContextChain creates a chain holding at most capacity entries.
// Zero or negative capacity uses the default.
func NewContextChain(capacity int) *ContextChain {
	if capacity <= 0 {
		capacity = defaultChainCap
	}
	return &ContextChain{cap: capacity}
}

// Push appends an entry, evicting the oldest once full.
func (c *ContextChain) Push(kind, query, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, model.ContextEntry{
		Kind:    kind,
		Query:   query,
		Summary: summary,
		At:      time.Now(),
	})
	if len(c.entries) > c.cap {
		c.entries = c.entries[len(c.entries)-c.cap:]
	}
}

// Recent returns up to n newest entries, oldest first. n <= 0 returns
// everything.
func (c *ContextChain) Recent(n int) []model.ContextEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.entries
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]model.ContextEntry, len(entries))
	copy(out, entries)
	return out
}

// Len reports how many entries the chain holds.
func (c *ContextChain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the chain.
func (c *ContextChain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
