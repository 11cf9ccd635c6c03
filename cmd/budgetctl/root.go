package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/config"
	applog "budget/internal/log"
)

type rootFlags struct {
	backend string
	dataDir string
	dbPath  string
}

// app carries what every subcommand needs.
type app struct {
	flags  rootFlags
	stdin  io.Reader
	stdout io.Writer
	cfg    *config.Config
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Administer the budget ledger",
		Long:          "Create accounts, export documents, print summaries and migrate the SQLite schema.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.flags.backend != "" {
				cfg.DataBackend = a.flags.backend
			}
			if a.flags.dataDir != "" {
				cfg.DataDir = a.flags.dataDir
			}
			if a.flags.dbPath != "" {
				cfg.SQLiteDBPath = a.flags.dbPath
			}
			a.cfg = cfg
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)

	root.PersistentFlags().StringVarP(&a.flags.backend, "backend", "b", "", "Ledger backend: file, memory or sqlite (default from DATA_BACKEND)")
	root.PersistentFlags().StringVarP(&a.flags.dataDir, "data-dir", "d", "", "Data directory for the file backend (default from DATA_DIR)")
	root.PersistentFlags().StringVar(&a.flags.dbPath, "db", "", "SQLite database path (default from SQLITE_DB_PATH)")

	root.AddCommand(
		newAddUserCmd(a),
		newExportCmd(a),
		newSummaryCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// openLedger creates the configured backend. The caller must run Cleanup.
func (a *app) openLedger(ctx context.Context) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := backend.NewFactory(quiet).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", a.cfg.DataBackend, err)
	}
	return res, nil
}

func (a *app) logger() *applog.Logger {
	return applog.New(applog.Config{
		Level:     applog.ParseLevel(a.cfg.LogLevel),
		Component: applog.ComponentApp,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
}
