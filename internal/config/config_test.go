package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./wallethome", cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Node.Timeout)
	assert.Equal(t, 128, cfg.Monitor.CacheSize)
	assert.Equal(t, time.Minute, cfg.Monitor.CacheTTL)
	require.ErrorIs(t, cfg.ValidateNode(), ErrNoNode)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "wallet.toml", `
data_dir = "/var/lib/wallet"

[log]
level = "debug"
format = "json"

[node]
address = "127.0.0.1:20000"
public_key = "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"
timeout = "3s"

[monitor]
cache_ttl = "30s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/wallet", cfg.DataDir)
	assert.Equal(t, "127.0.0.1:20000", cfg.Node.Address)
	assert.Equal(t, 3*time.Second, cfg.Node.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Monitor.CacheTTL)
	assert.Equal(t, 128, cfg.Monitor.CacheSize)
	require.NoError(t, cfg.ValidateNode())

	key, err := cfg.Node.PublicKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	opts, err := cfg.Log.Options()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, opts.LogLevel)
	assert.Equal(t, log.JSONLogger, opts.Type)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "wallet.yaml", "node:\n  address: file:1\n")
	t.Setenv("WALLET_NODE_ADDRESS", "env:2")
	t.Setenv("WALLET_MONITOR_CACHE_SIZE", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env:2", cfg.Node.Address)
	assert.Equal(t, 4, cfg.Monitor.CacheSize)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "log level", content: "log:\n  level: loud\n"},
		{name: "log format", content: "log:\n  format: xml\n"},
		{name: "cache size", content: "monitor:\n  cache_size: 0\n"},
		{name: "timeout", content: "node:\n  timeout: -1s\n"},
		{name: "public key", content: "node:\n  public_key: abcd\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "wallet.yaml", tc.content))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
