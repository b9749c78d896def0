package storage

import (
	"sync"

	"github.com/eugenenazirov/supabase-preflight/internal/preflight"
)

// ReportStore keeps the most recent check report.
type ReportStore interface {
	Latest() (preflight.Report, bool)
	Save(report preflight.Report)
}

// MemoryStore keeps the latest report in-memory and guards access with a RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	report preflight.Report
	ok     bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Latest returns a copy of the stored report and whether one has been saved.
func (s *MemoryStore) Latest() (preflight.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ok {
		return preflight.Report{}, false
	}
	return s.report.Clone(), true
}

// Save replaces the stored report with a copy of report.
func (s *MemoryStore) Save(report preflight.Report) {
	cloned := report.Clone()

	s.mu.Lock()
	s.report = cloned
	s.ok = true
	s.mu.Unlock()
}
