package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/memo"
)

func newMemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Encode and decode transfer memos",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "encode <text>",
		Short: "Print the hex wire form of a memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := memo.New(args[0])
			if err := m.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", m.Hex())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <hex>",
		Short: "Print the text of a memo payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := memo.Decode(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", m.DisplayValue())
			if !m.Trusted() {
				fmt.Fprintln(out, "warning: payload is not a canonical memo, showing raw hex")
			}
			if !m.HasValidSize() {
				return errors.New("memo exceeds the maximum size")
			}
			return nil
		},
	})
	return cmd
}
