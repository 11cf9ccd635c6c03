package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.SQLiteDBPath
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			version, dirty, err := storage.SchemaVersion(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Schema at version %d (dirty=%t) in %s\n", version, dirty, path)
			return nil
		},
	}
}
