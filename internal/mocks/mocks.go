// Package mocks holds testify mocks for the wallet and ledger capabilities.
package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"transfer-dapp-api/internal/ledger"
	"transfer-dapp-api/internal/model"
	"transfer-dapp-api/internal/wallet"
)

type Wallet struct {
	mock.Mock
}

func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	args := w.Called(ctx)
	accounts, _ := args.Get(0).([]common.Address)
	return accounts, args.Error(1)
}

func (w *Wallet) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	args := w.Called(ctx)
	accounts, _ := args.Get(0).([]common.Address)
	return accounts, args.Error(1)
}

func (w *Wallet) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	args := w.Called(ctx, req)
	hash, _ := args.Get(0).(common.Hash)
	return hash, args.Error(1)
}

type Ledger struct {
	mock.Mock
}

func (l *Ledger) AppendRecord(ctx context.Context, req ledger.AppendRequest) (ledger.PendingTx, error) {
	args := l.Called(ctx, req)
	pending, _ := args.Get(0).(ledger.PendingTx)
	return pending, args.Error(1)
}

func (l *Ledger) AllRecords(ctx context.Context) ([]ledger.Record, error) {
	args := l.Called(ctx)
	records, _ := args.Get(0).([]ledger.Record)
	return records, args.Error(1)
}

func (l *Ledger) RecordCount(ctx context.Context) (*big.Int, error) {
	args := l.Called(ctx)
	count, _ := args.Get(0).(*big.Int)
	return count, args.Error(1)
}

// PendingTx resolves Wait with the configured receipt, after Block is closed
// when Block is set.
type PendingTx struct {
	TxHash  common.Hash
	Receipt *types.Receipt
	Err     error
	Block   chan struct{}
}

func (p *PendingTx) Hash() common.Hash { return p.TxHash }

func (p *PendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	if p.Block != nil {
		select {
		case <-p.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.Receipt, p.Err
}

type HistoryLoader struct {
	mock.Mock
}

func (h *HistoryLoader) LoadHistory(ctx context.Context) []model.TransferRecord {
	args := h.Called(ctx)
	records, _ := args.Get(0).([]model.TransferRecord)
	return records
}
