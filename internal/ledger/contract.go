// Package ledger reads and appends transfer records on the Transactions
// contract. Reads go through eth_call; the append is signed by the wallet.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"transfer-dapp-api/internal/wallet"
)

var (
	ErrReverted = errors.New("transaction reverted")
	ErrNoSender = errors.New("no transaction sender configured")
)

// Backend is the node side of the contract: calls and receipts.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Sender signs and broadcasts transactions; normally the wallet.
type Sender interface {
	SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error)
}

// Record mirrors Transactions.TransferStruct, fields in ABI order.
type Record struct {
	Sender    common.Address
	Receiver  common.Address
	Amount    *big.Int
	Message   string
	Timestamp *big.Int
	Keyword   string
}

type AppendRequest struct {
	From     common.Address
	Receiver common.Address
	Amount   *big.Int
	Message  string
	Keyword  string
}

// PendingTx is a broadcast transaction that has not been waited on yet.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*types.Receipt, error)
}

type Contract struct {
	address      common.Address
	abi          abi.ABI
	backend      Backend
	sender       Sender
	pollInterval time.Duration
}

func NewContract(address common.Address, backend Backend, sender Sender, pollInterval time.Duration) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Contract{
		address:      address,
		abi:          parsed,
		backend:      backend,
		sender:       sender,
		pollInterval: pollInterval,
	}, nil
}

func (c *Contract) Address() common.Address { return c.address }

func (c *Contract) AppendRecord(ctx context.Context, req AppendRequest) (PendingTx, error) {
	if c.sender == nil {
		return nil, ErrNoSender
	}
	data, err := c.abi.Pack(methodAppend, req.Receiver, req.Amount, req.Message, req.Keyword)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", methodAppend, err)
	}
	to := c.address
	hash, err := c.sender.SendTransaction(ctx, wallet.TxRequest{
		From: req.From,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", methodAppend, err)
	}
	return &pendingTx{hash: hash, backend: c.backend, interval: c.pollInterval}, nil
}

func (c *Contract) AllRecords(ctx context.Context) ([]Record, error) {
	out, err := c.call(ctx, methodAll)
	if err != nil {
		return nil, err
	}
	records := *abi.ConvertType(out[0], new([]Record)).(*[]Record)
	return records, nil
}

func (c *Contract) RecordCount(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, methodCount)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Contract) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := c.address
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return out, nil
}

type pendingTx struct {
	hash     common.Hash
	backend  Backend
	interval time.Duration
}

func (p *pendingTx) Hash() common.Hash { return p.hash }

// Wait polls for the receipt until it is mined or ctx is done.
func (p *pendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		receipt, err := p.backend.TransactionReceipt(ctx, p.hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%s: %w", p.hash.Hex(), ErrReverted)
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", p.hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
