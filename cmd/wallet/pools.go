package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPoolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Staking pool checks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Warn about accounts delegating to a pool that is closing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.openService(true)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			w, found := svc.CheckDelegations(cmd.Context())
			if !found {
				fmt.Fprintln(out, "no delegation targets are closing")
				return nil
			}
			fmt.Fprintln(out, "The pools of these accounts are closing:")
			fmt.Fprintln(out, w.Message())
			return nil
		},
	})
	return cmd
}
