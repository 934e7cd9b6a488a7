// Package quota holds the daily application counters that are not backed by
// the SQLite store.
package quota

import (
	"context"
	"sync"
)

// Memory is a per-process counter. It forgets everything on restart, so it
// suits tests and dry runs.
type Memory struct {
	mu   sync.Mutex
	used map[string]int
}

func NewMemory() *Memory {
	return &Memory{used: map[string]int{}}
}

func (m *Memory) Reserve(_ context.Context, day string, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used[day] >= limit {
		return false, nil
	}
	m.used[day]++
	return true, nil
}

func (m *Memory) Release(_ context.Context, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used[day] > 0 {
		m.used[day]--
	}
	return nil
}

func (m *Memory) Used(_ context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[day], nil
}
