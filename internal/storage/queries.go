package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type AccountRow struct {
	Username       string
	PasswordHash   string
	LegacyPassword string
	Email          string
	CreatedAt      string
}

const getAccount = `-- name: GetAccount :one
SELECT username, password_hash, legacy_password, email, created_at
FROM accounts
WHERE username = ?
`

func (q *Queries) GetAccount(ctx context.Context, username string) (AccountRow, error) {
	row := q.db.QueryRowContext(ctx, getAccount, username)
	var i AccountRow
	err := row.Scan(&i.Username, &i.PasswordHash, &i.LegacyPassword, &i.Email, &i.CreatedAt)
	return i, err
}

const createAccount = `-- name: CreateAccount :execrows
INSERT INTO accounts (username, password_hash, legacy_password, email, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (username) DO NOTHING
`

func (q *Queries) CreateAccount(ctx context.Context, arg AccountRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, createAccount,
		arg.Username, arg.PasswordHash, arg.LegacyPassword, arg.Email, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateAccount = `-- name: UpdateAccount :execrows
UPDATE accounts
SET password_hash = ?, legacy_password = ?, email = ?
WHERE username = ?
`

func (q *Queries) UpdateAccount(ctx context.Context, arg AccountRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateAccount,
		arg.PasswordHash, arg.LegacyPassword, arg.Email, arg.Username)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listAccounts = `-- name: ListAccounts :many
SELECT username, password_hash, legacy_password, email, created_at
FROM accounts
ORDER BY username
`

func (q *Queries) ListAccounts(ctx context.Context) ([]AccountRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AccountRow
	for rows.Next() {
		var i AccountRow
		if err := rows.Scan(&i.Username, &i.PasswordHash, &i.LegacyPassword, &i.Email, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDocument = `-- name: GetDocument :one
SELECT body FROM documents WHERE username = ?
`

func (q *Queries) GetDocument(ctx context.Context, username string) (string, error) {
	row := q.db.QueryRowContext(ctx, getDocument, username)
	var body string
	err := row.Scan(&body)
	return body, err
}

const upsertDocument = `-- name: UpsertDocument :exec
INSERT INTO documents (username, version, body, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (username) DO UPDATE SET
    version = excluded.version,
    body = excluded.body,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertDocumentParams struct {
	Username string
	Version  int64
	Body     string
}

func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	_, err := q.db.ExecContext(ctx, upsertDocument, arg.Username, arg.Version, arg.Body)
	return err
}

const insertDocument = `-- name: InsertDocument :exec
INSERT INTO documents (username, version, body, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (username) DO NOTHING
`

func (q *Queries) InsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	_, err := q.db.ExecContext(ctx, insertDocument, arg.Username, arg.Version, arg.Body)
	return err
}
