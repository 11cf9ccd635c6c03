package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the sqlite ledger backend. Documents are stored as
// canonical JSON in one row per user.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Load(ctx context.Context, username string) (*core.Document, error) {
	if err := core.ValidateUsername(username); err != nil {
		return nil, err
	}
	body, err := r.queries.GetDocument(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc, err := core.Migrate([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("load document for %s: %w", username, err)
	}
	return doc, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, username string, doc *core.Document) error {
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	body, err := core.EncodeDocument(doc)
	if err != nil {
		return err
	}
	err = r.queries.UpsertDocument(ctx, UpsertDocumentParams{
		Username: username,
		Version:  int64(doc.Version),
		Body:     string(body),
	})
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	slog.DebugContext(ctx, "Document saved to SQLite",
		"username", username,
		"months", len(doc.Months),
		"bytes", len(body))
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, username string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return accountFromRow(row)
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, acc core.Account) error {
	if err := core.ValidateUsername(acc.Username); err != nil {
		return err
	}
	body, err := core.EncodeDocument(core.NewDocument())
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	n, err := qtx.CreateAccount(ctx, accountToRow(acc))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if n == 0 {
		return core.ErrUserExists
	}
	// New accounts start with the default document.
	if err := qtx.InsertDocument(ctx, UpsertDocumentParams{
		Username: acc.Username,
		Version:  int64(core.DocumentVersion),
		Body:     string(body),
	}); err != nil {
		return fmt.Errorf("seed document: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, acc core.Account) error {
	n, err := r.queries.UpdateAccount(ctx, accountToRow(acc))
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		acc, err := accountFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}

func accountToRow(acc core.Account) AccountRow {
	return AccountRow{
		Username:       acc.Username,
		PasswordHash:   acc.PasswordHash,
		LegacyPassword: acc.LegacyPassword,
		Email:          acc.Email,
		CreatedAt:      acc.CreatedAt.Text(),
	}
}

func accountFromRow(row AccountRow) (core.Account, error) {
	created, err := core.ParseTimestamp(row.CreatedAt)
	if err != nil {
		return core.Account{}, fmt.Errorf("decode created_at for %s: %w", row.Username, err)
	}
	return core.Account{
		Username:       row.Username,
		PasswordHash:   row.PasswordHash,
		LegacyPassword: row.LegacyPassword,
		Email:          row.Email,
		CreatedAt:      created,
	}, nil
}
