// Package file stores accounts and budget documents as JSON files:
//
//	<dir>/users.json                     accounts keyed by username
//	<dir>/budget_data_<username>.json    one document per user
//
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so a crash never leaves a half-written file behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"budget/internal/core"
)

const accountsFile = "users.json"

type Store struct {
	dir string

	// mu serializes read-modify-write cycles on users.json and keeps
	// concurrent saves of the same document from interleaving renames.
	mu sync.Mutex
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DocumentPath returns where a user's document is stored.
func (s *Store) DocumentPath(username string) string {
	return filepath.Join(s.dir, "budget_data_"+username+".json")
}

func (s *Store) Load(_ context.Context, username string) (*core.Document, error) {
	if err := core.ValidateUsername(username); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.DocumentPath(username))
	if errors.Is(err, fs.ErrNotExist) {
		return core.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document for %s: %w", username, err)
	}
	doc, err := core.Migrate(b)
	if err != nil {
		return nil, fmt.Errorf("load document for %s: %w", username, err)
	}
	return doc, nil
}

func (s *Store) Save(_ context.Context, username string, doc *core.Document) error {
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	b, err := core.EncodeDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFileAtomic(s.DocumentPath(username), b); err != nil {
		return fmt.Errorf("save document for %s: %w", username, err)
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, username string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.readAccounts()
	if err != nil {
		return core.Account{}, err
	}
	acc, ok := accounts[username]
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
	accounts, err := s.readAccounts()
	if err != nil {
		return err
	}
	if _, ok := accounts[acc.Username]; ok {
		return core.ErrUserExists
	}
	accounts[acc.Username] = acc
	return s.writeAccounts(accounts)
}

func (s *Store) UpdateAccount(_ context.Context, acc core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.readAccounts()
	if err != nil {
		return err
	}
	if _, ok := accounts[acc.Username]; !ok {
		return core.ErrUserNotFound
	}
	accounts[acc.Username] = acc
	return s.writeAccounts(accounts)
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.readAccounts()
	if err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, acc)
	}
	slices.SortFunc(out, func(a, b core.Account) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func (s *Store) readAccounts() (map[string]core.Account, error) {
	accounts := map[string]core.Account{}
	b, err := os.ReadFile(filepath.Join(s.dir, accountsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return accounts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return accounts, nil
	}
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	for name, acc := range accounts {
		acc.Username = name
		accounts[name] = acc
	}
	return accounts, nil
}

func (s *Store) writeAccounts(accounts map[string]core.Account) error {
	b, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, accountsFile), append(b, '\n')); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		return err
	}
	return os.Rename(name, path)
}
