package services

import (
	"sync"
	"time"

	"budget/internal/core"
)

// Session is one login's working copy of the user's document. All access
// goes through BudgetService, which holds mu for the duration of each
// operation.
type Session struct {
	ID       string
	Username string

	mu    sync.Mutex
	doc   *core.Document
	month string
	dirty bool
}

func newSession(id, username string, doc *core.Document, now time.Time) *Session {
	s := &Session{ID: id, Username: username, doc: doc, month: core.MonthKey(now)}
	_, _ = doc.View(s.month)
	return s
}

// Month is the selected month key.
func (s *Session) Month() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.month
}

// Dirty reports unsaved edits.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}
