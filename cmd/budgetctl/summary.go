package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
)

func newSummaryCmd(a *app) *cobra.Command {
	var toSheets bool
	cmd := &cobra.Command{
		Use:   "summary <username>",
		Short: "Print every stored month's totals",
		Long:  "Print every stored month's totals, most recent first. With --sheets the rows are also pushed to the user's spreadsheet tab.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			username := args[0]

			ledger, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			defer ledger.Cleanup()

			doc, err := ledger.Store.Load(ctx, username)
			if err != nil {
				return err
			}
			rows := core.Comparison(doc)
			if len(rows) == 0 {
				fmt.Fprintf(a.stdout, "No months stored for %s\n", username)
				return nil
			}

			table := cli.Table{
				Title:   "Monthly summary for " + username,
				Headers: []string{"Month", "Income", "Expenses", "Savings", "Savings %", "Debt"},
			}
			for _, r := range rows {
				table.Rows = append(table.Rows, []string{
					r.Month, r.Income.Format(), r.Expenses.Format(), r.Savings.Format(), r.RateLabel(), r.Debt.Format(),
				})
			}
			fmt.Fprint(a.stdout, cli.RenderTable(table))

			if !toSheets {
				return nil
			}
			client, err := gsheet.New(ctx, gsheet.Config{
				SpreadsheetID:   a.cfg.GoogleSpreadsheetID,
				CredentialsJSON: a.cfg.GoogleServiceAccountJSON,
				CredentialsFile: a.cfg.GoogleServiceAccountFile,
			})
			if err != nil {
				return err
			}
			if err := client.WriteSummaries(ctx, username, sheets.Rows(doc)); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Mirrored %d months to tab %q\n", len(rows), client.TabName(username))
			return nil
		},
	}
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "Also write the rows to Google Sheets")
	return cmd
}
