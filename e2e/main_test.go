//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"budget/internal/auth"
	apphttp "budget/internal/http"
	"budget/internal/ledger/memory"
	applog "budget/internal/log"
	"budget/internal/services"
)

var appURL string

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

// runTestMain serves the real handler chain over a memory ledger so the
// browser exercises templates, htmx swaps and cookies end to end.
func runTestMain(m *testing.M) int {
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	store := memory.New(nil)
	sessions := services.NewSessionStore(store, 64, time.Hour)
	svc := services.NewBudgetService(store, sessions, auth.NewTokens("e2e-session-secret", time.Hour),
		services.Options{Logger: logger})

	srv, err := apphttp.NewServer(":0", apphttp.Options{
		Service:                svc,
		Sessions:               sessions,
		Logger:                 logger,
		LoginAttemptsPerMinute: 1000,
	})
	if err != nil {
		fmt.Printf("Failed to build server: %v\n", err)
		return 1
	}
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()
	defer srv.Shutdown(context.Background())

	appURL = ts.URL
	return m.Run()
}
