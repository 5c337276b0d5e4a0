// Package config loads wallet settings. Environment variables prefixed with
// WALLET_ override the config file, which overrides the built-in defaults.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/milsawicki/concordium-reference-wallet-ios/pkg/log"
)

const EnvPrefix = "WALLET"

var (
	ErrInvalidConfig = errors.New("config: invalid")
	ErrNoNode        = errors.New("config: node.address is not set")
)

type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Version string        `mapstructure:"version"`
	Log     LogConfig     `mapstructure:"log"`
	Node    NodeConfig    `mapstructure:"node"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NodeConfig locates the chain query node. PublicKey is the hex encoded
// Ed25519 key the node's certificate must carry.
type NodeConfig struct {
	Address   string        `mapstructure:"address"`
	PublicKey string        `mapstructure:"public_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type MonitorConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./wallethome")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("node.address", "")
	v.SetDefault("node.public_key", "")
	v.SetDefault("node.timeout", 10*time.Second)
	v.SetDefault("monitor.cache_size", 128)
	v.SetDefault("monitor.cache_ttl", time.Minute)
}

// Load reads the config file at path, if path is not empty, applies
// environment overrides such as WALLET_NODE_ADDRESS and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields every command needs. Node settings are checked
// separately by ValidateNode.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	}
	if _, err := c.Log.Options(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Node.Timeout <= 0 {
		return fmt.Errorf("%w: node.timeout must be positive", ErrInvalidConfig)
	}
	if c.Monitor.CacheSize <= 0 {
		return fmt.Errorf("%w: monitor.cache_size must be positive", ErrInvalidConfig)
	}
	if c.Node.PublicKey != "" {
		if _, err := c.Node.PublicKeyBytes(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ValidateNode checks the settings needed to talk to a node.
func (c *Config) ValidateNode() error {
	if c.Node.Address == "" {
		return ErrNoNode
	}
	if c.Node.PublicKey == "" {
		return fmt.Errorf("%w: node.public_key is not set", ErrInvalidConfig)
	}
	return nil
}

// PublicKeyBytes decodes the pinned node key.
func (n NodeConfig) PublicKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(n.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("node.public_key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("node.public_key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Options converts the log settings for log.Init.
func (l LogConfig) Options() (log.Options, error) {
	level, err := log.ParseLogLevel(l.Level)
	if err != nil {
		return log.Options{}, err
	}
	typ, err := log.ParseLoggerType(l.Format)
	if err != nil {
		return log.Options{}, err
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}
