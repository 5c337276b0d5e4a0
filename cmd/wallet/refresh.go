package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/appsettings"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
)

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Update submission statuses from the node and check for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.openClient()
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			check := appsettings.NewCheck(a.cfg.Version)
			action, err := check.Run(cmd.Context(), client)
			switch {
			case err != nil && !errors.Is(err, appsettings.ErrAlreadyChecked):
				log.Root.Warn().Err(err).Msg("app settings check failed")
			case err == nil:
				if u, ok := action.(appsettings.ActionUpdate); ok {
					if u.Forced {
						fmt.Fprintf(out, "update required: %s\n", u.URL)
					} else {
						fmt.Fprintf(out, "update available: %s\n", u.URL)
					}
				}
			}

			svc, cleanup, err := a.openService(true)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.Refresh(cmd.Context()); err != nil {
				return err
			}
			if w, found := svc.CheckDelegations(cmd.Context()); found {
				fmt.Fprintf(out, "The pools of these accounts are closing:\n%s\n", w.Message())
			}
			return printAccounts(out, svc)
		},
	}
}
