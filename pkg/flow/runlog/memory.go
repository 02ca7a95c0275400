package runlog

import (
	"sort"
	"sync"
)

// MemoryStore keeps run log entries in memory. It is intended for tests
// and short-lived processes.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]Entry
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Entry)}
}

// Append implements Store.
func (s *MemoryStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.runs[e.RunID] = append(s.runs[e.RunID], e)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entries := make([]Entry, len(s.runs[runID]))
	copy(entries, s.runs[runID])
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

// Runs implements Store.
func (s *MemoryStore) Runs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteRun implements Store.
func (s *MemoryStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.runs, runID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.runs = nil
	return nil
}
