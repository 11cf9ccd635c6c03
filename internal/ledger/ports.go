// Package ledger defines the persistence ports for budget documents and
// accounts. Backends live in the file, memory and storage (sqlite) packages.
package ledger

import (
	"context"

	"budget/internal/core"
)

type (
	// DocumentStore loads and saves whole budget documents.
	DocumentStore interface {
		// Load returns the user's document, or a new default document when
		// nothing has been stored yet.
		Load(ctx context.Context, username string) (*core.Document, error)
		// Save overwrites the user's document.
		Save(ctx context.Context, username string, doc *core.Document) error
	}

	// AccountStore persists registered users.
	AccountStore interface {
		GetAccount(ctx context.Context, username string) (core.Account, error)
		CreateAccount(ctx context.Context, acc core.Account) error
		UpdateAccount(ctx context.Context, acc core.Account) error
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	// Store is implemented by every backend.
	Store interface {
		DocumentStore
		AccountStore
	}
)
