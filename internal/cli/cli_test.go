package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-dapp-api/internal/app"
	"transfer-dapp-api/internal/config"
	"transfer-dapp-api/internal/fault"
	"transfer-dapp-api/internal/ledger"
)

// fakeNode answers eth_call for getTransactionCount.
type fakeNode struct {
	abi   abi.ABI
	count int64
}

func (n *fakeNode) Call(args map[string]interface{}, block string) (hexutil.Bytes, error) {
	raw, _ := args["input"].(string)
	if raw == "" {
		raw, _ = args["data"].(string)
	}
	data, err := hexutil.Decode(raw)
	if err != nil || len(data) < 4 {
		return nil, errors.New("bad call data")
	}
	m, err := n.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	if m.Name != "getTransactionCount" {
		return nil, errors.New("execution reverted")
	}
	return m.Outputs.Pack(big.NewInt(n.count))
}

func startNode(t *testing.T, count int64) {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(ledger.ContractABI))
	require.NoError(t, err)

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", &fakeNode{abi: parsed, count: count}))
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(func() {
		httpSrv.Close()
		srv.Stop()
	})

	t.Setenv("ETH_RPC_URL", httpSrv.URL)
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("WALLET_RPC_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CACHE_DIR", t.TempDir())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCount(t *testing.T) {
	startNode(t, 7)

	out, err := run(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)

	out, err = run(t, "count", "-o", "json")
	require.NoError(t, err)
	var got map[string]int64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(7), got["count"])
}

func TestHistoryWithoutWallet(t *testing.T) {
	startNode(t, 0)

	out, err := run(t, "history", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestConnectWithoutWallet(t *testing.T) {
	startNode(t, 0)

	_, err := run(t, "connect")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.WalletUnavailable))
}

func TestSendWithoutWallet(t *testing.T) {
	startNode(t, 0)

	_, err := run(t, "send", "--to", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", "--amount", "0.01")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.WalletUnavailable))

	_, err = run(t, "send", "--amount", "0.01")
	assert.ErrorContains(t, err, "to")
}

func TestUnreconciledEmpty(t *testing.T) {
	startNode(t, 0)

	out, err := run(t, "unreconciled")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnknownOutput(t *testing.T) {
	startNode(t, 1)

	_, err := run(t, "count", "-o", "yaml")
	assert.ErrorContains(t, err, "yaml")
}

func TestServeStopsOnCancel(t *testing.T) {
	startNode(t, 2)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:0")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	a, err := app.Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, a) }()

	require.Eventually(t, func() bool { return a.Workflow.Snapshot().CountSet }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, int64(2), a.Workflow.Snapshot().Count)
}
