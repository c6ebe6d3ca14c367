// Package session tracks the connected wallet account.
package session

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"transfer-dapp-api/internal/fault"
	"transfer-dapp-api/internal/metrics"
	"transfer-dapp-api/internal/model"
	"transfer-dapp-api/internal/notify"
	"transfer-dapp-api/internal/wallet"
)

const (
	AlertInstallWallet = "Please Install Metamask Wallet"
	AlertInstall       = "Please Install Metamask"
)

// HistoryLoader is reloaded whenever an account becomes current.
type HistoryLoader interface {
	LoadHistory(ctx context.Context) []model.TransferRecord
}

type Manager struct {
	wallet  wallet.Wallet
	alerts  notify.Alerter
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	account common.Address
	ok      bool
	history HistoryLoader
}

// NewManager builds a session. A nil w means no wallet is installed.
func NewManager(w wallet.Wallet, alerts notify.Alerter, m *metrics.Metrics, logger zerolog.Logger) *Manager {
	return &Manager{wallet: w, alerts: alerts, metrics: m, logger: logger}
}

// SetHistoryLoader wires the workflow's history read.
func (m *Manager) SetHistoryLoader(h HistoryLoader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = h
}

func (m *Manager) Wallet() wallet.Wallet { return m.wallet }

func (m *Manager) Detect() bool {
	if m.wallet == nil {
		m.alerts.Alert(AlertInstallWallet)
		return false
	}
	return true
}

func (m *Manager) CurrentAccount() (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.account, m.ok
}

// CheckExistingConnection adopts an already authorized account without
// prompting the user.
func (m *Manager) CheckExistingConnection(ctx context.Context) (common.Address, bool, error) {
	const op = "session.CheckExistingConnection"
	if !m.Detect() {
		return common.Address{}, false, fault.New(fault.WalletUnavailable, op, fault.ErrNoWallet)
	}

	accounts, err := m.wallet.AuthorizedAccounts(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to query authorized accounts")
		return common.Address{}, false, fault.New(fault.WalletUnavailable, op, err)
	}
	m.logger.Debug().Int("accounts", len(accounts)).Msg("Authorized accounts")
	if len(accounts) == 0 {
		m.logger.Info().Msg("No accounts found")
		return common.Address{}, false, nil
	}

	m.adopt(ctx, accounts[0])
	return accounts[0], true, nil
}

// Connect prompts the wallet for authorization and adopts the first account.
func (m *Manager) Connect(ctx context.Context) (common.Address, error) {
	const op = "session.Connect"
	if m.wallet == nil {
		m.alerts.Alert(AlertInstall)
		m.metrics.Connect(string(fault.WalletUnavailable))
		return common.Address{}, fault.New(fault.WalletUnavailable, op, fault.ErrNoWallet)
	}

	accounts, err := m.wallet.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = fault.ErrNoAccounts
	}
	if err != nil {
		f := fault.New(fault.WalletUnavailable, op, err)
		m.logger.Error().Err(err).Msg("Wallet connect failed")
		m.alerts.Alert(f.UserMessage())
		m.metrics.Connect(string(f.Kind))
		return common.Address{}, f
	}

	m.metrics.Connect("ok")
	m.adopt(ctx, accounts[0])
	return accounts[0], nil
}

func (m *Manager) adopt(ctx context.Context, account common.Address) {
	m.mu.Lock()
	m.account = account
	m.ok = true
	history := m.history
	m.mu.Unlock()

	m.logger.Info().Str("account", account.Hex()).Msg("Wallet account connected")
	if history != nil {
		history.LoadHistory(ctx)
	}
}
