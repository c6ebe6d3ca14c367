package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-dapp-api/internal/config"
	"transfer-dapp-api/internal/db"
	"transfer-dapp-api/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		EthRPCURL:       "http://127.0.0.1:1",
		ContractAddress: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		PollInterval:    10 * time.Millisecond,
	}
}

func TestBuildWithoutWallet(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Session.Wallet())
	assert.IsType(t, &db.MemoryJournal{}, a.Journal)
	assert.False(t, a.Session.Detect())
	require.Len(t, a.AlertLog.Recent(), 1)
	assert.Equal(t, session.AlertInstallWallet, a.AlertLog.Recent()[0].Message)
}

func TestRouter(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	router, err := a.Router()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "transfer_ledger_count")

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"query":"mutation { connectWallet { connected } }"}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Ethereum Object.")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
