package catalog

import "sync"

// warningCollector accumulates per-branch warnings from concurrent rerank and
// filter tasks. It is the only shared mutable state in the pipeline; the lock
// is held only for the duration of an append.
type warningCollector struct {
	mu      sync.Mutex
	entries []string
}

func (c *warningCollector) add(msg string) {
	c.mu.Lock()
	c.entries = append(c.entries, msg)
	c.mu.Unlock()
}

func (c *warningCollector) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}
