// Package memory is the in-process mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"budget/internal/core"
	"budget/internal/sheets"
)

var _ sheets.Mirror = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	tabs   map[string][]core.MonthSummary
	writes int
}

func New() *Store {
	return &Store{tabs: map[string][]core.MonthSummary{}}
}

// WriteSummaries replaces the user's rows.
func (s *Store) WriteSummaries(_ context.Context, username string, rows []core.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[username] = slices.Clone(rows)
	s.writes++
	return nil
}

// ReadSummaries returns a copy of the user's rows, nil when never written.
func (s *Store) ReadSummaries(_ context.Context, username string) ([]core.MonthSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tabs[username]), nil
}

// Writes counts WriteSummaries calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
