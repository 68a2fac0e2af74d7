package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
backend:
  base_url: "http://localhost:8080"
  timeout: 15
kms:
  base_url: "http://localhost:9090"
  key_alias: "zkpay-signer"
networks:
  bsc:
    chainId: 56
    name: "BSC"
    rpcEndpoints:
      - "https://bsc-dataseed1.binance.org"
tokens:
  USDT:
    id: 1
    symbol: "USDT"
    decimals: 18
waits:
  withdraw_interval: 10
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.Backend.BaseURL)
	}
	if cfg.BackendTimeout() != 15*time.Second {
		t.Errorf("backend timeout = %v, want 15s", cfg.BackendTimeout())
	}
	if cfg.Tokens["USDT"].Decimals != 18 {
		t.Errorf("token decimals = %d", cfg.Tokens["USDT"].Decimals)
	}
	if cfg.Networks["bsc"].ChainID != 56 {
		t.Errorf("network chain id = %d", cfg.Networks["bsc"].ChainID)
	}
}

func TestIntervalDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.CheckbookPollInterval(); got != 2*time.Second {
		t.Errorf("checkbook interval = %v, want default 2s", got)
	}
	if got := cfg.AllocationPollInterval(); got != 2*time.Second {
		t.Errorf("allocation interval = %v, want default 2s", got)
	}
	if got := cfg.WithdrawPollInterval(); got != 10*time.Second {
		t.Errorf("withdraw interval = %v, want configured 10s", got)
	}
	if got := cfg.KMSTimeout(); got != 60*time.Second {
		t.Errorf("kms timeout = %v, want default 60s", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ZKPAY_BACKEND_URL", "http://override:9999")
	t.Setenv("ZKPAY_AUTH_SECRET", "env-secret")
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://override:9999" {
		t.Errorf("base url = %q, want env override", cfg.Backend.BaseURL)
	}
	if cfg.Backend.AuthSecret != "env-secret" {
		t.Errorf("auth secret = %q, want env override", cfg.Backend.AuthSecret)
	}
}

func TestValidation(t *testing.T) {
	if _, err := Load(writeConfig(t, "kms:\n  base_url: \"x\"\n")); err == nil {
		t.Error("missing backend.base_url should fail")
	}
	bad := `
backend:
  base_url: "http://localhost:8080"
tokens:
  USDT:
    id: 1
    symbol: "USDC"
    decimals: 18
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Error("token symbol mismatch should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
