package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/ledger/file"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddUserExportSummary(t *testing.T) {
	t.Setenv("BUDGET_CONFIG", "")
	dir := t.TempDir()
	base := []string{"--backend", "file", "--data-dir", dir}

	out, err := run(t, "secret1\n", append([]string{"adduser", "alice", "--email", "a@example.com"}, base...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "User alice created")

	_, err = run(t, "", append([]string{"adduser", "alice", "--password", "secret1"}, base...)...)
	assert.ErrorIs(t, err, core.ErrUserExists)

	_, err = run(t, "abc\n", append([]string{"adduser", "bob"}, base...)...)
	assert.ErrorIs(t, err, core.ErrPasswordTooShort)

	out, err = run(t, "", append([]string{"summary", "alice"}, base...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No months stored for alice")

	store, err := file.New(dir)
	require.NoError(t, err)
	ctx := context.Background()
	doc, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, doc.SetIncome("2024-01", core.MustParseMoney("2000")))
	require.NoError(t, doc.SetExpense("2024-01", "Groceries", core.MustParseMoney("500")))
	require.NoError(t, store.Save(ctx, "alice", doc))

	out, err = run(t, "", append([]string{"summary", "alice"}, base...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "$1,500.00")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "Monthly summary for alice")

	out, err = run(t, "", append([]string{"export", "alice", "-o", "-"}, base...)...)
	require.NoError(t, err)
	var exported map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Contains(t, exported, "months")

	target := filepath.Join(t.TempDir(), "alice.json")
	out, err = run(t, "", append([]string{"export", "alice", "-o", target}, base...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 months for alice")
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = run(t, "", append([]string{"export", "nobody"}, base...)...)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestMigrate(t *testing.T) {
	t.Setenv("BUDGET_CONFIG", "")
	db := filepath.Join(t.TempDir(), "budget.db")

	out, err := run(t, "", "migrate", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "dirty=false")
	assert.Contains(t, out, db)
}

func TestArgsRequired(t *testing.T) {
	_, err := run(t, "", "export")
	assert.Error(t, err)
}
