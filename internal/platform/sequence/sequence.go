// Package sequence allocates monotonically increasing, collision-free numbers
// per key (prescription numbers, receipt numbers, daily invoice counters).
package sequence

import (
	"context"
	"sync"
)

// Allocator hands out the next number for a key. Implementations must be
// atomic under concurrent requests and durable across restarts.
type Allocator interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Memory is an in-process allocator for tests and single-node tooling.
type Memory struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[string]int64)}
}

func (m *Memory) Next(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}
