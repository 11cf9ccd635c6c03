package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"budget/internal/services"
)

func newAddUserCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "adduser <username>",
		Short: "Create an account with an empty budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			username := args[0]

			if password == "" {
				fmt.Fprint(a.stdout, "Password: ")
				pw, err := readPassword(a.stdin)
				fmt.Fprintln(a.stdout)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = pw
			}

			ledger, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			defer ledger.Cleanup()

			svc := services.NewBudgetService(ledger.Store, nil, nil, services.Options{Logger: a.logger()})
			if err := svc.Signup(ctx, username, password, email); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "User %s created\n", strings.TrimSpace(username))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Optional e-mail address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// readPassword reads without echo from a terminal and falls back to one
// line of input for pipes and tests.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no password given")
}
