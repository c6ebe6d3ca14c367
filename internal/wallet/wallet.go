// Package wallet talks to the wallet endpoint holding the user's keys.
package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// TransferGasLimit is the static gas hint sent with native value transfers.
const TransferGasLimit uint64 = 21001

type Wallet interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	AuthorizedAccounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// TxRequest is the eth_sendTransaction parameter object.
type TxRequest struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// NativeTransfer builds the value transfer request with the static gas hint.
func NativeTransfer(from, to common.Address, value *big.Int) TxRequest {
	gas := hexutil.Uint64(TransferGasLimit)
	return TxRequest{
		From:  from,
		To:    &to,
		Gas:   &gas,
		Value: (*hexutil.Big)(value),
	}
}

type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// RPC is a Wallet backed by a JSON-RPC endpoint that manages accounts.
type RPC struct {
	client rpcCaller
}

func Dial(ctx context.Context, url string) (*RPC, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial wallet %s: %w", url, err)
	}
	return &RPC{client: c}, nil
}

func NewRPC(c rpcCaller) *RPC {
	return &RPC{client: c}
}

func (w *RPC) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (w *RPC) AuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (w *RPC) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	var hash common.Hash
	if err := w.client.CallContext(ctx, &hash, "eth_sendTransaction", req); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Close releases the underlying connection when it has one.
func (w *RPC) Close() {
	if c, ok := w.client.(*rpc.Client); ok {
		c.Close()
	}
}
