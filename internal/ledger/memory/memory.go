// Package memory is an in-process ledger used for tests and demos.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"budget/internal/core"
)

type Store struct {
	mu       sync.Mutex
	cats     []string
	docs     map[string]*core.Document
	accounts map[string]core.Account
}

// New returns an empty store whose new documents start with cats, or with
// the default categories when cats is empty.
func New(cats []string) *Store {
	if len(cats) == 0 {
		cats = core.DefaultCategories
	}
	return &Store{
		cats:     slices.Clone(cats),
		docs:     map[string]*core.Document{},
		accounts: map[string]core.Account{},
	}
}

// NewFromFiles seeds the category list from base/seed_categories.txt when
// that file exists.
func NewFromFiles(base string) *Store {
	return New(readLines(filepath.Join(base, "seed_categories.txt")))
}

func (s *Store) Load(_ context.Context, username string) (*core.Document, error) {
	if err := core.ValidateUsername(username); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[username]; ok {
		return doc.Clone(), nil
	}
	doc := core.NewDocument()
	doc.Categories = core.NewRegistry(s.cats...)
	return doc, nil
}

func (s *Store) Save(_ context.Context, username string, doc *core.Document) error {
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[username] = doc.Clone()
	return nil
}

func (s *Store) GetAccount(_ context.Context, username string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return core.Account{}, core.ErrUserNotFound
	}
	return acc, nil
}

func (s *Store) CreateAccount(_ context.Context, acc core.Account) error {
	if err := core.ValidateUsername(acc.Username); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.Username]; ok {
		return core.ErrUserExists
	}
	s.accounts[acc.Username] = acc
	return nil
}

func (s *Store) UpdateAccount(_ context.Context, acc core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.Username]; !ok {
		return core.ErrUserNotFound
	}
	s.accounts[acc.Username] = acc
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	slices.SortFunc(out, func(a, b core.Account) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
