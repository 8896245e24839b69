package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Belloabraham121/warpscan/internal/cache"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Node         NodeConfig
	Scan         ScanConfig
	Cache        CacheConfig
	Subscription SubscriptionConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Port string
}

// NodeConfig describes the JSON-RPC endpoint.
type NodeConfig struct {
	RPCURL  string
	ChainID uint64
	// Local marks a node running on this machine; source selection prefers
	// it over the indexed API even when an API key is configured.
	Local   bool
	Timeout time.Duration
}

// ScanConfig describes the indexed block-explorer REST service.
type ScanConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type CacheConfig struct {
	Enabled   bool
	Overrides map[cache.Kind]cache.Policy
}

type SubscriptionConfig struct {
	PollInterval time.Duration
	EventBuffer  int
}

type LoggingConfig struct {
	Level    string
	ToFile   bool
	FilePath string
	Format   string
}

const defaultScanBaseURL = "https://api.etherscan.io/v2/api"

// Load assembles the immutable configuration object once at startup.
// Precedence: environment > chain preset file > built-in defaults. The
// indexed-API key in particular always honors WARPSCAN_API_KEY over any
// key persisted in the preset file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional
	}

	var preset ChainPreset
	if path := getEnv("CHAINS_CONFIG", ""); path != "" {
		p, err := LoadChainPreset(path, getEnv("CHAIN", "mainnet"))
		if err != nil {
			return nil, fmt.Errorf("load chain preset: %w", err)
		}
		preset = p
	}

	cfg := &Config{}
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")

	cfg.Node.RPCURL = getEnv("NODE_RPC_URL", preset.RPCURL)
	if cfg.Node.RPCURL == "" {
		return nil, fmt.Errorf("NODE_RPC_URL must be provided (or a chain preset with rpc_url)")
	}

	chainID, err := parseUintEnv("CHAIN_ID", preset.ChainID)
	if err != nil {
		return nil, err
	}
	if chainID == 0 {
		chainID = 1
	}
	cfg.Node.ChainID = chainID

	timeoutSec, err := parseUintEnv("RPC_TIMEOUT", 30)
	if err != nil {
		return nil, err
	}
	cfg.Node.Timeout = time.Duration(timeoutSec) * time.Second

	if v := getEnv("LOCAL_NODE", ""); v != "" {
		cfg.Node.Local = v == "true" || v == "1"
	} else {
		cfg.Node.Local = isLoopbackURL(cfg.Node.RPCURL)
	}

	cfg.Scan.BaseURL = getEnv("SCAN_API_URL", firstNonEmpty(preset.ScanURL, defaultScanBaseURL))
	cfg.Scan.APIKey = getEnv("WARPSCAN_API_KEY", preset.APIKey)
	cfg.Scan.Timeout = cfg.Node.Timeout

	cacheEnabled := getEnv("CACHE_ENABLED", "true")
	cfg.Cache.Enabled = cacheEnabled == "true" || cacheEnabled == "1"
	overrides, err := cacheTTLOverrides()
	if err != nil {
		return nil, err
	}
	cfg.Cache.Overrides = overrides

	pollSec, err := parseUintEnv("SUB_POLL_INTERVAL", 2)
	if err != nil {
		return nil, err
	}
	if pollSec == 0 {
		pollSec = 2
	}
	cfg.Subscription.PollInterval = time.Duration(pollSec) * time.Second

	buffer, err := parseUintEnv("SUB_EVENT_BUFFER", 256)
	if err != nil {
		return nil, err
	}
	cfg.Subscription.EventBuffer = int(buffer)

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	logToFile := getEnv("LOG_TO_FILE", "false")
	cfg.Logging.ToFile = logToFile == "true" || logToFile == "1"
	cfg.Logging.FilePath = getEnv("LOG_FILE_PATH", "logs/warpscan.log")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "text")

	return cfg, nil
}

// cacheTTLOverrides reads the per-kind TTL knobs. Only kinds with an explicit
// env var get an override; everything else keeps cache.DefaultPolicies.
func cacheTTLOverrides() (map[cache.Kind]cache.Policy, error) {
	vars := map[string]cache.Kind{
		"CACHE_TTL_BLOCK":           cache.KindBlock,
		"CACHE_TTL_TRANSACTION":     cache.KindTransaction,
		"CACHE_TTL_ADDRESS":         cache.KindAddress,
		"CACHE_TTL_CONTRACT":        cache.KindContract,
		"CACHE_TTL_TOKEN":           cache.KindToken,
		"CACHE_TTL_ADDRESS_TXS":     cache.KindAddressTxs,
		"CACHE_TTL_TOKEN_TRANSFERS": cache.KindTokenTransfers,
		"CACHE_TTL_INTERNAL_TXS":    cache.KindInternalTxs,
		"CACHE_TTL_TOKEN_BALANCES":  cache.KindTokenBalances,
		"CACHE_TTL_ENS_NAME":        cache.KindENSName,
	}

	defaults := cache.DefaultPolicies()
	overrides := make(map[cache.Kind]cache.Policy)
	for env, kind := range vars {
		raw := os.Getenv(env)
		if raw == "" {
			continue
		}
		sec, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", env, err)
		}
		p := defaults[kind]
		p.TTL = time.Duration(sec) * time.Second
		overrides[kind] = p
	}
	return overrides, nil
}

func parseUintEnv(key string, fallback uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func isLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
