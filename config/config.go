// Package config loads the SDK configuration from a YAML file with
// environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root SDK configuration.
type Config struct {
	Backend  BackendConfig            `yaml:"backend"`
	KMS      KMSConfig                `yaml:"kms"`
	NATS     NATSConfig               `yaml:"nats"`
	Store    StoreConfig              `yaml:"store"`
	Networks map[string]NetworkConfig `yaml:"networks"`
	Tokens   map[string]TokenConfig   `yaml:"tokens"` // by symbol
	Waits    WaitConfig               `yaml:"waits"`
}

// BackendConfig points at the ZKPay backend deployment.
type BackendConfig struct {
	BaseURL      string `yaml:"base_url"`
	WebSocketURL string `yaml:"websocket_url"`
	Timeout      int    `yaml:"timeout"` // seconds, 0 = default
	AuthSecret   string `yaml:"auth_secret"`
	AuthSubject  string `yaml:"auth_subject"`
	TOTPSecret   string `yaml:"totp_secret"` // for privileged retry endpoints
}

// KMSConfig points at the KMS signing service.
type KMSConfig struct {
	BaseURL   string `yaml:"base_url"`
	AuthToken string `yaml:"auth_token"`
	Timeout   int    `yaml:"timeout"` // seconds
	KeyAlias  string `yaml:"key_alias"`
}

// NATSConfig configures the optional event feed.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
}

// StoreConfig configures the optional local history store.
type StoreConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NetworkConfig describes one chain endpoint set.
type NetworkConfig struct {
	ChainID      uint32   `yaml:"chainId"` // native EVM chain ID
	Name         string   `yaml:"name"`
	RPCEndpoints []string `yaml:"rpcEndpoints"`
}

// TokenConfig describes one supported token.
type TokenConfig struct {
	ID       uint16 `yaml:"id"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// WaitConfig tunes the lifecycle reconciler.
type WaitConfig struct {
	CheckbookInterval  int `yaml:"checkbook_interval"`  // seconds, default 2
	AllocationInterval int `yaml:"allocation_interval"` // seconds, default 2
	WithdrawInterval   int `yaml:"withdraw_interval"`   // seconds, default 5
}

// Load reads a config file and applies env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ZKPAY_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("ZKPAY_AUTH_SECRET"); v != "" {
		c.Backend.AuthSecret = v
	}
	if v := os.Getenv("ZKPAY_TOTP_SECRET"); v != "" {
		c.Backend.TOTPSecret = v
	}
	if v := os.Getenv("ZKPAY_KMS_TOKEN"); v != "" {
		c.KMS.AuthToken = v
	}
	if v := os.Getenv("ZKPAY_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	for symbol, t := range c.Tokens {
		if t.Symbol != "" && t.Symbol != symbol {
			return fmt.Errorf("token %q: symbol mismatch %q", symbol, t.Symbol)
		}
	}
	return nil
}

// BackendTimeout returns the HTTP timeout for backend calls.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.Timeout > 0 {
		return time.Duration(c.Backend.Timeout) * time.Second
	}
	return 30 * time.Second
}

// KMSTimeout returns the HTTP timeout for KMS calls.
func (c *Config) KMSTimeout() time.Duration {
	if c.KMS.Timeout > 0 {
		return time.Duration(c.KMS.Timeout) * time.Second
	}
	return 60 * time.Second
}

// durationOr converts seconds with a default.
func durationOr(seconds int, def time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}

// CheckbookPollInterval returns the checkbook wait interval.
func (c *Config) CheckbookPollInterval() time.Duration {
	return durationOr(c.Waits.CheckbookInterval, 2*time.Second)
}

// AllocationPollInterval returns the allocation wait interval.
func (c *Config) AllocationPollInterval() time.Duration {
	return durationOr(c.Waits.AllocationInterval, 2*time.Second)
}

// WithdrawPollInterval returns the withdraw wait interval.
func (c *Config) WithdrawPollInterval() time.Duration {
	return durationOr(c.Waits.WithdrawInterval, 5*time.Second)
}
