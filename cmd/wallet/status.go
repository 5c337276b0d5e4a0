package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/submission"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Submission status tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "eligibility",
		Short: "Print the actions allowed in every submission status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tREAD-ONLY\tSEND\tRECEIVE\tSHIELD\tRETRY/REMOVE\tMESSAGE")
			for s := submission.StatusLocal; s <= submission.StatusFinalized; s++ {
				for _, readOnly := range []bool{false, true} {
					a := submission.Eligibility(s, readOnly)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						s, yesNo(readOnly), yesNo(a.Send), yesNo(a.Receive),
						yesNo(a.ShieldUnshield), yesNo(a.RetryRemove), a.Message)
				}
			}
			return w.Flush()
		},
	})
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
