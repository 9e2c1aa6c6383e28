package config

import (
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/launchpad-api/internal/models"
)

// Config holds the configuration for the deployment service
type Config struct {
	Port         string
	DatabasePath string

	// Network selects the target chain ("base" or "base-sepolia").
	Network string

	// Operator key material and platform-level fee addresses. The private
	// key must never appear in logs or responses.
	OperatorPrivateKey       string
	InterfaceAdminAddress    string
	InterfaceRewardRecipient string

	DefaultCreatorFeePct   int
	DefaultInitialPoolSize string

	// RequireUserWallet switches the wallet resolver into the strict
	// creator-rewards-must-be-explicit policy.
	RequireUserWallet bool

	MaxRetries      int
	RetryBaseDelay  time.Duration
	WalletRecordTTL time.Duration

	AllowedOrigins []string

	DeployerEndpoint string
	DeployerAPIKey   string
	UploadEndpoint   string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	maxRetries, err := GetEnvMaxRetries()
	if err != nil {
		return nil, err
	}

	retryBaseDelay, err := GetEnvRetryBaseDelay()
	if err != nil {
		return nil, err
	}

	defaultFee, err := GetEnvDefaultCreatorFeePct()
	if err != nil {
		return nil, err
	}

	walletTTL, err := GetEnvWalletRecordTTL()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                     getEnvOrDefault("PORT", DefaultPort),
		DatabasePath:             getEnvOrDefault("DATABASE_PATH", DefaultDatabasePath),
		Network:                  getEnvOrDefault("NETWORK", ""),
		OperatorPrivateKey:       getEnvOrDefault("OPERATOR_PRIVATE_KEY", ""),
		InterfaceAdminAddress:    getEnvOrDefault("INTERFACE_ADMIN_ADDRESS", ""),
		InterfaceRewardRecipient: getEnvOrDefault("INTERFACE_REWARD_RECIPIENT", ""),
		DefaultCreatorFeePct:     defaultFee,
		DefaultInitialPoolSize:   getEnvOrDefault("DEFAULT_INITIAL_POOL_SIZE", DefaultInitialPoolSize),
		RequireUserWallet:        getEnvOrDefault("REQUIRE_USER_WALLET", "false") == "true",
		MaxRetries:               maxRetries,
		RetryBaseDelay:           retryBaseDelay,
		WalletRecordTTL:          walletTTL,
		AllowedOrigins:           splitOrigins(getEnvOrDefault("ALLOWED_ORIGINS", "")),
		DeployerEndpoint:         getEnvOrDefault("DEPLOYER_ENDPOINT", ""),
		DeployerAPIKey:           getEnvOrDefault("DEPLOYER_API_KEY", ""),
		UploadEndpoint:           getEnvOrDefault("UPLOAD_ENDPOINT", ""),
	}

	return cfg, nil
}

// OperatorAddress derives the fallback operator wallet address from the
// configured private key.
func (c *Config) OperatorAddress() (common.Address, error) {
	if c.OperatorPrivateKey == "" {
		return common.Address{}, models.NewAppError(models.ErrorKindConfiguration, "OPERATOR_PRIVATE_KEY is not set")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.OperatorPrivateKey, "0x"))
	if err != nil {
		return common.Address{}, models.WrapError(models.ErrorKindConfiguration, err, "invalid operator private key")
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
