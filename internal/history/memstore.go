package history

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]RunRecord
	conflicts []ConflictRecord
}

// NewMemoryStore returns an initialized MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]RunRecord),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemoryStore) InitSchema(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// AddRun stores a run keyed by its ID.
func (m *MemoryStore) AddRun(_ context.Context, run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// AddConflict appends a conflict record.
func (m *MemoryStore) AddConflict(_ context.Context, c ConflictRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts = append(m.conflicts, c)
	return nil
}

// GetRun returns the run with the given ID, or nil if not found.
func (m *MemoryStore) GetRun(_ context.Context, id string) (*RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListRuns returns runs newest-first, up to limit. A limit <= 0 returns all.
func (m *MemoryStore) ListRuns(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]RunRecord, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// RunConflicts returns all conflict records for one run, in insertion order.
func (m *MemoryStore) RunConflicts(_ context.Context, runID string) ([]ConflictRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ConflictRecord
	for _, c := range m.conflicts {
		if c.RunID == runID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Stats aggregates counts across all recorded runs.
func (m *MemoryStore) Stats(_ context.Context) (*RunStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &RunStats{
		RunCount:      len(m.runs),
		ConflictCount: len(m.conflicts),
	}
	for _, c := range m.conflicts {
		if c.Resolved {
			stats.ResolvedCount++
		}
	}
	return stats, nil
}
