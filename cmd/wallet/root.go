package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/milsawicki/concordium-reference-wallet-ios/internal/config"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/pool"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/store"
	"github.com/milsawicki/concordium-reference-wallet-ios/internal/wallet"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/chainquery"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/db/pebble"
	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	configPath string
	home       string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "wallet",
		Short:         "Concordium wallet core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (toml, yaml or json)")
	root.PersistentFlags().StringVar(&a.home, "home", "", "Wallet home directory, overrides data_dir")

	root.AddCommand(
		newMemoCmd(),
		newStatusCmd(),
		newAccountsCmd(a),
		newPoolsCmd(a),
		newRefreshCmd(a),
		newDevnodeCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.home != "" {
		cfg.DataDir = a.home
	}
	opts, err := cfg.Log.Options()
	if err != nil {
		return err
	}
	opts.Output = cmd.ErrOrStderr()
	log.Init(opts)

	a.cfg = cfg
	return nil
}

// openStore opens the account store under the data directory.
func (a *app) openStore() (*store.Accounts, error) {
	dir := filepath.Join(a.cfg.DataDir, "accounts")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	kv, err := pebble.NewKVStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}
	return store.NewAccounts(kv), nil
}

// openClient connects to the configured chain query node.
func (a *app) openClient() (*chainquery.Client, error) {
	if err := a.cfg.ValidateNode(); err != nil {
		return nil, err
	}
	key, err := a.cfg.Node.PublicKeyBytes()
	if err != nil {
		return nil, err
	}
	return chainquery.NewClient(chainquery.ClientConfig{
		Address: a.cfg.Node.Address,
		NodeKey: key,
		Timeout: a.cfg.Node.Timeout,
	})
}

// openService loads the wallet. With withNode set it is connected to the
// chain query node as status source and pool querier.
func (a *app) openService(withNode bool) (*wallet.Service, func(), error) {
	st, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{st.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Root.Warn().Err(err).Msg("close")
			}
		}
	}

	cfg := wallet.Config{Store: st}
	if withNode {
		client, err := a.openClient()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, client.Close)

		querier, err := pool.NewCachingQuerier(client, a.cfg.Monitor.CacheSize, a.cfg.Monitor.CacheTTL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cfg.Source = client
		cfg.Querier = querier
	}

	svc := wallet.NewService(cfg)
	if err := svc.Load(); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
