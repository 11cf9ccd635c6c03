package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	applog "budget/internal/log"
	"budget/internal/ledger"
	"budget/internal/sheets"
)

// SyncWorker mirrors saved budget documents to the spreadsheet.
type SyncWorker struct {
	store       ledger.Store
	mirror      sheets.SummaryWriter
	logger      *applog.Logger
	concurrency int

	synced atomic.Int64
	failed atomic.Int64
}

// NewSyncWorker creates a worker reading from store and writing to mirror.
// A concurrency below one is treated as one.
func NewSyncWorker(store ledger.Store, mirror sheets.SummaryWriter, logger *applog.Logger, concurrency int) *SyncWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncWorker{
		store:       store,
		mirror:      mirror,
		logger:      logger.WithComponent(applog.ComponentWorker),
		concurrency: concurrency,
	}
}

// HandleLedgerSaved processes a single ledger-saved message from AMQP. The
// message only names the user; the rows are always rebuilt from the stored
// document so replays and out-of-order deliveries converge.
func (w *SyncWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger saved message",
		applog.FieldUsername, msg.Username,
		"months", len(msg.Months),
		"timestamp", msg.Timestamp)

	if err := w.syncUser(ctx, msg.Username); err != nil {
		w.failed.Add(1)
		return err
	}
	return nil
}

// ResyncAll mirrors every registered account. It runs at worker startup to
// recover from messages missed while the worker was down.
func (w *SyncWorker) ResyncAll(ctx context.Context) error {
	accounts, err := w.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		w.logger.InfoContext(ctx, "No accounts found on startup")
		return nil
	}

	var errorCount atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, acc := range accounts {
		g.Go(func() error {
			if err := w.syncUser(gctx, acc.Username); err != nil {
				w.logger.ErrorContext(gctx, "Failed to mirror account during startup",
					applog.FieldUsername, acc.Username,
					applog.FieldError, err)
				errorCount.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", len(accounts),
		"errors", errorCount.Load())
	if n := errorCount.Load(); n > 0 {
		w.failed.Add(n)
		return fmt.Errorf("startup sync: %d of %d accounts failed", n, len(accounts))
	}
	return ctx.Err()
}

// Stats reports how many users were mirrored and how many attempts failed.
func (w *SyncWorker) Stats() (synced, failed int64) {
	return w.synced.Load(), w.failed.Load()
}

func (w *SyncWorker) syncUser(ctx context.Context, username string) error {
	doc, err := w.store.Load(ctx, username)
	if err != nil {
		return fmt.Errorf("load document for %s: %w", username, err)
	}
	rows := sheets.Rows(doc)
	if err := w.mirror.WriteSummaries(ctx, username, rows); err != nil {
		return fmt.Errorf("write summaries for %s: %w", username, err)
	}
	w.synced.Add(1)
	w.logger.InfoContext(ctx, "Mirrored budget summaries",
		applog.FieldUsername, username,
		"rows", len(rows))
	return nil
}
