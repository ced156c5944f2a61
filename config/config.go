// Package config loads operator-tool configuration from the environment.
// The core never reads process environment directly (spec §6) — config
// is the single seam where env vars become typed values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/farcaster-ops/opkit/contracts"
)

// Config holds everything the CLI/MCP entrypoint needs to wire the core.
type Config struct {
	// ChainRPCURL is the JSON-RPC endpoint of the target EVM L2.
	ChainRPCURL string

	// Password unlocks the local key vault. Empty means the CLI must
	// prompt interactively (see cmd/opkit).
	Password string

	// VaultPath overrides the default vault file location
	// ($XDG_CONFIG_HOME/opkit/vault.json).
	VaultPath string

	// Addresses is the contract address set in effect: the defaulted
	// mainnet instance unless overridden piecemeal by env vars.
	Addresses contracts.Addresses

	// RPCTimeout bounds every individual JSON-RPC call (spec §5: 10s).
	RPCTimeout time.Duration
	// ReceiptTimeout bounds the total receipt-polling wait (spec §5: 60s).
	ReceiptTimeout time.Duration
	// SessionTTL is how long an unlocked-wallet session token remains
	// redeemable before the CLI must re-prompt for the password.
	SessionTTL time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present (dev convenience); it is a
// no-op in production where real env vars are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ChainRPCURL:    getEnv("CHAIN_RPC_URL", "https://mainnet.optimism.io"),
		Password:       getEnv("PASSWORD", ""),
		VaultPath:      getEnv("VAULT_PATH", ""),
		Addresses:      contracts.DefaultAddresses(),
		RPCTimeout:     time.Duration(getEnvInt("RPC_TIMEOUT_SECONDS", 10)) * time.Second,
		ReceiptTimeout: time.Duration(getEnvInt("RECEIPT_TIMEOUT_SECONDS", 60)) * time.Second,
		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_MINUTES", 15)) * time.Minute,
	}

	if err := overrideAddress(&cfg.Addresses.IDRegistry, "ID_REGISTRY_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideAddress(&cfg.Addresses.IDGateway, "ID_GATEWAY_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideAddress(&cfg.Addresses.KeyRegistry, "KEY_REGISTRY_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideAddress(&cfg.Addresses.KeyGateway, "KEY_GATEWAY_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideAddress(&cfg.Addresses.StorageRegistry, "STORAGE_REGISTRY_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideAddress(&cfg.Addresses.Bundler, "BUNDLER_ADDRESS"); err != nil {
		return nil, err
	}
	if err := overrideAddress(&cfg.Addresses.SignedKeyRequestValidator, "SIGNED_KEY_REQUEST_VALIDATOR_ADDRESS"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func overrideAddress(dst *contracts.Address, key string) error {
	v := getEnv(key, "")
	if v == "" {
		return nil
	}
	addr, err := contracts.ParseAddress(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = addr
	return nil
}
