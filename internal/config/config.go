package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	EthRPCURL       string
	WalletRPCURL    string
	ContractAddress common.Address
	CacheDir        string
	DatabaseURL     string
	ListenAddr      string
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
	LogLevel        string
}

// Load reads .env files when present, then the environment. An empty
// WALLET_RPC_URL runs without a wallet.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		EthRPCURL:    os.Getenv("ETH_RPC_URL"),
		WalletRPCURL: os.Getenv("WALLET_RPC_URL"),
		CacheDir:     getenv("CACHE_DIR", "data/cache"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}
	if cfg.EthRPCURL == "" {
		return nil, errors.New("ETH_RPC_URL is required")
	}

	addr := os.Getenv("CONTRACT_ADDRESS")
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("CONTRACT_ADDRESS %q is not an address", addr)
	}
	cfg.ContractAddress = common.HexToAddress(addr)

	var err error
	if cfg.ConfirmTimeout, err = duration("CONFIRM_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = duration("RECEIPT_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
