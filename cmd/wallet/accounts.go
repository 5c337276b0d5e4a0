package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/account"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/wallet"
)

func newAccountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage wallet accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts with their status and available actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.openService(false)
			if err != nil {
				return err
			}
			defer cleanup()
			return printAccounts(cmd.OutOrStdout(), svc)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import accounts from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := readAccounts(args[0])
			if err != nil {
				return err
			}
			svc, cleanup, err := a.openService(false)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := svc.Import(accounts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d accounts\n", len(accounts))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <address>",
		Short: "Remove an account whose creation failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.openService(false)
			if err != nil {
				return err
			}
			defer cleanup()
			return svc.RemoveFailedAccount(args[0])
		},
	})
	return cmd
}

// readAccounts reads a JSON array of accounts. Accounts without a submission
// record get a fresh one in the status given in the file.
func readAccounts(path string) ([]account.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	var accounts []account.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts %s: %w", path, err)
	}
	for i, acc := range accounts {
		if acc.Submission.ID != uuid.Nil {
			continue
		}
		r := submission.NewRecord(acc.Submission.Reference, acc.ReadOnly)
		r.Status = acc.Submission.Status
		r.HasTransfers = acc.HasTransfers
		accounts[i].Submission = r
	}
	return accounts, nil
}

func printAccounts(out io.Writer, svc *wallet.Service) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tSTATUS\tACTIONS\tAT RISK")
	for _, acc := range svc.Accounts() {
		v, err := svc.View(acc.Address)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			acc.DisplayName(), acc.Address, v.Status, describeActions(v.Actions), yesNo(v.AtRisk))
	}
	return w.Flush()
}

func describeActions(a submission.Actions) string {
	switch a.Message {
	case submission.MessagePending, submission.MessageFailed:
		if a.RetryRemove {
			return a.Message.String() + " (retry/remove)"
		}
		return a.Message.String()
	case submission.MessageNone:
	}
	out := ""
	for _, s := range []struct {
		on   bool
		name string
	}{{a.Send, "send"}, {a.Receive, "receive"}, {a.ShieldUnshield, "shield"}} {
		if !s.on {
			continue
		}
		if out != "" {
			out += ","
		}
		out += s.name
	}
	return out
}
