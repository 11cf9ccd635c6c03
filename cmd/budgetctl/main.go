// Command budgetctl administers a budget ledger from the shell: accounts,
// exports, summaries and schema migrations.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
