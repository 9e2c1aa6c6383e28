package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// NetworkBase targets the production chain.
	NetworkBase = "base"
	// NetworkBaseSepolia targets the corresponding test chain. An unset
	// NETWORK falls back here so that misconfiguration can never deploy
	// to mainnet.
	NetworkBaseSepolia = "base-sepolia"

	BaseMainnetChainID = 8453
	BaseSepoliaChainID = 84532

	DefaultBaseRPCURL        = "https://mainnet.base.org"
	DefaultBaseSepoliaRPCURL = "https://sepolia.base.org"

	// DefaultPort defines the default HTTP port for the API server
	DefaultPort = "8080"

	// DefaultDatabasePath defines the default SQLite database location
	DefaultDatabasePath = "launchpad.db"

	// DefaultMaxRetries defines the attempt bound for a logical deployment
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay defines the base delay for exponential backoff
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultCreatorFeePct defines the creator reward percentage used when
	// the request carries none (or an unusable value)
	DefaultCreatorFeePct = 40

	// DefaultInitialPoolSize defines the initial pool size in ETH
	DefaultInitialPoolSize = "1"

	// DefaultWalletRecordTTL defines how long a stored wallet record stays
	// usable before it is treated as absent
	DefaultWalletRecordTTL = 24 * time.Hour
)

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvMaxRetries returns the configured retry bound or the default
func GetEnvMaxRetries() (int, error) {
	raw := os.Getenv("MAX_RETRIES")
	if raw == "" {
		return DefaultMaxRetries, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid MAX_RETRIES value: %q", raw)
	}
	return n, nil
}

// GetEnvRetryBaseDelay returns the configured backoff base delay or the default
func GetEnvRetryBaseDelay() (time.Duration, error) {
	raw := os.Getenv("RETRY_BASE_DELAY")
	if raw == "" {
		return DefaultRetryBaseDelay, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid RETRY_BASE_DELAY value: %q", raw)
	}
	return d, nil
}

// GetEnvDefaultCreatorFeePct returns the configured default creator reward
// percentage or the default
func GetEnvDefaultCreatorFeePct() (int, error) {
	raw := os.Getenv("DEFAULT_CREATOR_FEE_PCT")
	if raw == "" {
		return DefaultCreatorFeePct, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("invalid DEFAULT_CREATOR_FEE_PCT value: %q", raw)
	}
	return n, nil
}

// GetEnvWalletRecordTTL returns the configured wallet record TTL or the default
func GetEnvWalletRecordTTL() (time.Duration, error) {
	raw := os.Getenv("WALLET_RECORD_TTL")
	if raw == "" {
		return DefaultWalletRecordTTL, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid WALLET_RECORD_TTL value: %q", raw)
	}
	return d, nil
}

// GetEnvRPCURL returns the RPC endpoint for the given network, honoring
// per-network overrides
func GetEnvRPCURL(network string) string {
	switch network {
	case NetworkBase:
		return getEnvOrDefault("BASE_RPC_URL", DefaultBaseRPCURL)
	default:
		return getEnvOrDefault("BASE_SEPOLIA_RPC_URL", DefaultBaseSepoliaRPCURL)
	}
}
