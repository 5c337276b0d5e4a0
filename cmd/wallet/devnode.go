package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/chainquery"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/network/cert"
)

func newDevnodeCmd(a *app) *cobra.Command {
	var (
		listen  string
		fixture string
		keyFile string
	)
	cmd := &cobra.Command{
		Use:   "devnode",
		Short: "Serve chain queries from a JSON fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend := chainquery.NewFixtureBackend(chainquery.Fixture{})
			if fixture != "" {
				var err error
				if backend, err = chainquery.LoadFixtureBackend(fixture); err != nil {
					return err
				}
			}

			if keyFile == "" {
				if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
					return fmt.Errorf("create data dir: %w", err)
				}
				keyFile = filepath.Join(a.cfg.DataDir, "node.key")
			}
			priv, err := cert.LoadOrGenerateKey(keyFile)
			if err != nil {
				return err
			}
			pub := priv.Public().(ed25519.PublicKey)
			tlsCert, err := cert.NewGenerator(cert.Config{
				PublicKey:          pub,
				PrivateKey:         priv,
				CertValidityPeriod: 24 * time.Hour,
			}).GenerateCertificate()
			if err != nil {
				return err
			}

			srv, err := chainquery.NewServer(backend, tlsCert)
			if err != nil {
				return err
			}
			if err := srv.Listen(listen); err != nil {
				return err
			}
			defer srv.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "listening on %s\n", srv.Addr())
			fmt.Fprintf(out, "node public key %s\n", hex.EncodeToString(pub))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:20000", "UDP address to listen on")
	cmd.Flags().StringVar(&fixture, "fixture", "", "JSON fixture with pool and submission statuses")
	cmd.Flags().StringVar(&keyFile, "key", "", "Node key file, created when missing (default <data_dir>/node.key)")
	return cmd
}
