package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
	"budget/internal/core"
	ledgermem "budget/internal/ledger/memory"
	applog "budget/internal/log"
	sheetsmem "budget/internal/sheets/memory"
)

type failingWriter struct{ err error }

func (f failingWriter) WriteSummaries(context.Context, string, []core.MonthSummary) error {
	return f.err
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func seed(t *testing.T, store *ledgermem.Store, user string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, core.Account{Username: user}))
	doc, err := store.Load(ctx, user)
	require.NoError(t, err)
	require.NoError(t, doc.SetIncome("2024-02", core.MustParseMoney("1000")))
	require.NoError(t, doc.SetExpense("2024-02", "Groceries", core.MustParseMoney("250")))
	require.NoError(t, doc.SetIncome("2024-01", core.MustParseMoney("900")))
	require.NoError(t, store.Save(ctx, user, doc))
}

func TestHandleLedgerSavedMirrorsStoredDocument(t *testing.T) {
	store := ledgermem.New(nil)
	seed(t, store, "alice")
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, quietLogger(), 2)

	// The message's month list is informational; rows come from the store.
	msg := amqp.NewLedgerSavedMessage("alice", []string{"2024-02"})
	require.NoError(t, w.HandleLedgerSaved(context.Background(), msg))

	rows, err := mirror.ReadSummaries(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01", rows[0].Month)
	assert.Equal(t, "2024-02", rows[1].Month)
	assert.Equal(t, "750.00", rows[1].Savings.String())
	assert.InDelta(t, 75.0, rows[1].SavingsRate, 1e-9)

	synced, failed := w.Stats()
	assert.Equal(t, int64(1), synced)
	assert.Zero(t, failed)
}

func TestHandleLedgerSavedWriteFailure(t *testing.T) {
	store := ledgermem.New(nil)
	seed(t, store, "alice")
	boom := errors.New("sheets unavailable")
	w := NewSyncWorker(store, failingWriter{err: boom}, quietLogger(), 1)

	err := w.HandleLedgerSaved(context.Background(), amqp.NewLedgerSavedMessage("alice", nil))
	require.ErrorIs(t, err, boom)
	_, failed := w.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestHandleLedgerSavedInvalidUsername(t *testing.T) {
	w := NewSyncWorker(ledgermem.New(nil), sheetsmem.New(), quietLogger(), 1)
	err := w.HandleLedgerSaved(context.Background(), &amqp.LedgerSavedMessage{Username: "bad user!"})
	require.ErrorIs(t, err, core.ErrInvalidUsername)
}

func TestResyncAll(t *testing.T) {
	store := ledgermem.New(nil)
	for _, u := range []string{"alice", "bob", "carol"} {
		seed(t, store, u)
	}
	mirror := sheetsmem.New()
	w := NewSyncWorker(store, mirror, quietLogger(), 2)

	require.NoError(t, w.ResyncAll(context.Background()))
	assert.Equal(t, 3, mirror.Writes())
	for _, u := range []string{"alice", "bob", "carol"} {
		rows, _ := mirror.ReadSummaries(context.Background(), u)
		assert.Len(t, rows, 2, u)
	}
}

func TestResyncAllReportsFailures(t *testing.T) {
	store := ledgermem.New(nil)
	seed(t, store, "alice")
	seed(t, store, "bob")
	w := NewSyncWorker(store, failingWriter{err: errors.New("down")}, quietLogger(), 0)

	err := w.ResyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 accounts failed")
}

func TestResyncAllNoAccounts(t *testing.T) {
	w := NewSyncWorker(ledgermem.New(nil), sheetsmem.New(), quietLogger(), 1)
	require.NoError(t, w.ResyncAll(context.Background()))
}
