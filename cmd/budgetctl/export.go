package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"budget/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <username>",
		Short: "Write a user's budget document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			username := args[0]

			ledger, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			defer ledger.Cleanup()

			if _, err := ledger.Store.GetAccount(ctx, username); err != nil {
				return err
			}
			doc, err := ledger.Store.Load(ctx, username)
			if err != nil {
				return err
			}
			snap, err := export.Render(username, doc, time.Now())
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := a.stdout.Write(snap.Body)
				return err
			}
			if out == "" {
				out = snap.Filename
			}
			if err := os.WriteFile(out, snap.Body, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(a.stdout, "Exported %d months for %s to %s (%s)\n",
				len(doc.Months), username, out, humanize.Bytes(uint64(len(snap.Body))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file, "-" for stdout (default budget_data_<user>_<date>.json)`)
	return cmd
}
