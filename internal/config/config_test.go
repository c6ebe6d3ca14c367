package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("CONTRACT_ADDRESS", contract)
	t.Setenv("WALLET_RPC_URL", "")
	t.Setenv("CONFIRM_TIMEOUT", "")
	t.Setenv("RECEIPT_POLL_INTERVAL", "")
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(contract), cfg.ContractAddress)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Empty(t, cfg.WalletRPCURL)
	assert.Equal(t, time.Duration(0), cfg.ConfirmTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
}

func TestLoadFromEnvFile(t *testing.T) {
	for _, k := range []string{"ETH_RPC_URL", "CONTRACT_ADDRESS", "WALLET_RPC_URL", "CONFIRM_TIMEOUT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(
		"ETH_RPC_URL=http://node:8545\n"+
			"WALLET_RPC_URL=http://wallet:1248\n"+
			"CONTRACT_ADDRESS="+contract+"\n"+
			"CONFIRM_TIMEOUT=2m\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "http://node:8545", cfg.EthRPCURL)
	assert.Equal(t, "http://wallet:1248", cfg.WalletRPCURL)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmTimeout)
}

func TestLoadRejects(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("ETH_RPC_URL", "")
	_, err := Load(missing)
	assert.ErrorContains(t, err, "ETH_RPC_URL")

	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("CONTRACT_ADDRESS", "nope")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "CONTRACT_ADDRESS")

	t.Setenv("CONTRACT_ADDRESS", contract)
	t.Setenv("CONFIRM_TIMEOUT", "soon")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "CONFIRM_TIMEOUT")
}
