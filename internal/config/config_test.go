package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Belloabraham121/warpscan/internal/cache"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, "NODE_RPC_URL", "https://eth.example.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("got port %s, want 8080", cfg.Server.Port)
	}
	if cfg.Node.ChainID != 1 {
		t.Fatalf("got chain %d, want mainnet default", cfg.Node.ChainID)
	}
	if cfg.Node.Local {
		t.Fatal("remote URL must not be marked local")
	}
	if cfg.Scan.BaseURL != defaultScanBaseURL {
		t.Fatalf("got scan URL %s, want default", cfg.Scan.BaseURL)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("cache must default to enabled")
	}
	if cfg.Subscription.PollInterval != 2*time.Second {
		t.Fatalf("got poll interval %v, want 2s", cfg.Subscription.PollInterval)
	}
}

func TestLoadRequiresRPCURL(t *testing.T) {
	setEnv(t, "NODE_RPC_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without NODE_RPC_URL")
	}
}

func TestLoadDetectsLocalNode(t *testing.T) {
	tests := []struct {
		url   string
		local bool
	}{
		{"http://localhost:8545", true},
		{"http://127.0.0.1:8545", true},
		{"ws://localhost:8546", true},
		{"https://mainnet.example.test", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			setEnv(t, "NODE_RPC_URL", tt.url)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Node.Local != tt.local {
				t.Fatalf("Local = %v, want %v", cfg.Node.Local, tt.local)
			}
		})
	}
}

func TestLocalNodeOverride(t *testing.T) {
	setEnv(t, "NODE_RPC_URL", "https://remote.example.test")
	setEnv(t, "LOCAL_NODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Node.Local {
		t.Fatal("LOCAL_NODE=true must win over URL detection")
	}
}

func TestCacheTTLOverride(t *testing.T) {
	setEnv(t, "NODE_RPC_URL", "https://eth.example.test")
	setEnv(t, "CACHE_TTL_ADDRESS", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, ok := cfg.Cache.Overrides[cache.KindAddress]
	if !ok {
		t.Fatal("expected address TTL override")
	}
	if p.TTL != 90*time.Second {
		t.Fatalf("got TTL %v, want 90s", p.TTL)
	}
	if _, ok := cfg.Cache.Overrides[cache.KindBlock]; ok {
		t.Fatal("kinds without an env var must not be overridden")
	}
}

func TestChainPresetAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	content := `api_key: persisted-key
chains:
  - name: sepolia
    chain_id: 11155111
    rpc_url: https://sepolia.example.test
    scan_url: https://api-sepolia.example.test/api
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	setEnv(t, "CHAINS_CONFIG", path)
	setEnv(t, "CHAIN", "sepolia")
	setEnv(t, "NODE_RPC_URL", "")
	setEnv(t, "WARPSCAN_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Node.RPCURL != "https://sepolia.example.test" {
		t.Fatalf("got RPC URL %s from preset", cfg.Node.RPCURL)
	}
	if cfg.Node.ChainID != 11155111 {
		t.Fatalf("got chain %d, want sepolia", cfg.Node.ChainID)
	}
	// The env key always wins over the persisted key.
	if cfg.Scan.APIKey != "env-key" {
		t.Fatalf("got API key %q, want env-key", cfg.Scan.APIKey)
	}
}

func TestChainPresetPersistedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	content := `api_key: persisted-key
chains:
  - name: mainnet
    chain_id: 1
    rpc_url: https://eth.example.test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	setEnv(t, "CHAINS_CONFIG", path)
	setEnv(t, "CHAIN", "mainnet")
	setEnv(t, "NODE_RPC_URL", "")
	setEnv(t, "WARPSCAN_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.APIKey != "persisted-key" {
		t.Fatalf("got API key %q, want persisted-key", cfg.Scan.APIKey)
	}
}

func TestLoadChainPresetUnknownName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	if err := os.WriteFile(path, []byte("chains: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadChainPreset(path, "nope"); err == nil {
		t.Fatal("expected error for unknown chain name")
	}
}
