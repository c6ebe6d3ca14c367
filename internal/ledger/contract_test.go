package ledger

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-dapp-api/internal/wallet"
)

var contractAddr = common.HexToAddress("0x00000000000000000000000000000000000c0de1")

type fakeBackend struct {
	c        *Contract
	records  []Record
	failCall error
	misses   int
	status   uint64
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.failCall != nil {
		return nil, b.failCall
	}
	all := b.c.abi.Methods[methodAll]
	count := b.c.abi.Methods[methodCount]
	switch {
	case bytes.HasPrefix(call.Data, all.ID):
		return all.Outputs.Pack(b.records)
	case bytes.HasPrefix(call.Data, count.ID):
		return count.Outputs.Pack(big.NewInt(int64(len(b.records))))
	}
	return nil, errors.New("unknown selector")
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if b.misses > 0 {
		b.misses--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: b.status, BlockNumber: big.NewInt(7)}, nil
}

type fakeSender struct {
	reqs []wallet.TxRequest
}

func (s *fakeSender) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	s.reqs = append(s.reqs, req)
	return common.HexToHash("0xfeed"), nil
}

func newContract(t *testing.T) (*Contract, *fakeBackend, *fakeSender) {
	backend := &fakeBackend{status: types.ReceiptStatusSuccessful}
	sender := &fakeSender{}
	c, err := NewContract(contractAddr, backend, sender, time.Millisecond)
	require.NoError(t, err)
	backend.c = c
	return c, backend, sender
}

func TestAllRecordsEmpty(t *testing.T) {
	c, _, _ := newContract(t)

	records, err := c.AllRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	count, err := c.RecordCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count.Int64())
}

func TestAllRecordsKeepsContractOrder(t *testing.T) {
	c, backend, _ := newContract(t)
	backend.records = []Record{
		{Sender: common.HexToAddress("0x01"), Receiver: common.HexToAddress("0x02"), Amount: big.NewInt(10), Message: "first", Timestamp: big.NewInt(1700000000), Keyword: "a"},
		{Sender: common.HexToAddress("0x03"), Receiver: common.HexToAddress("0x04"), Amount: big.NewInt(20), Message: "second", Timestamp: big.NewInt(1700000100), Keyword: "b"},
	}

	records, err := c.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Message)
	assert.Equal(t, common.HexToAddress("0x04"), records[1].Receiver)
	assert.Equal(t, int64(1700000100), records[1].Timestamp.Int64())

	count, err := c.RecordCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Int64())
}

func TestReadErrorIsWrapped(t *testing.T) {
	c, backend, _ := newContract(t)
	backend.failCall = errors.New("connection refused")

	_, err := c.AllRecords(context.Background())
	assert.ErrorIs(t, err, backend.failCall)
}

func TestAppendRecordEncodesCall(t *testing.T) {
	c, backend, sender := newContract(t)
	backend.misses = 2

	from := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	to := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	pending, err := c.AppendRecord(context.Background(), AppendRequest{
		From: from, Receiver: to, Amount: big.NewInt(1500), Message: "rent", Keyword: "house",
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xfeed"), pending.Hash())

	require.Len(t, sender.reqs, 1)
	req := sender.reqs[0]
	assert.Equal(t, from, req.From)
	assert.Equal(t, contractAddr, *req.To)
	assert.Nil(t, req.Value)

	method := c.abi.Methods[methodAppend]
	require.True(t, bytes.HasPrefix(req.Data, method.ID))
	args, err := method.Inputs.Unpack(req.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, to, args[0])
	assert.Equal(t, int64(1500), args[1].(*big.Int).Int64())
	assert.Equal(t, "rent", args[2])
	assert.Equal(t, "house", args[3])

	receipt, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), receipt.BlockNumber.Uint64())
}

func TestWaitReverted(t *testing.T) {
	c, backend, _ := newContract(t)
	backend.status = types.ReceiptStatusFailed

	pending, err := c.AppendRecord(context.Background(), AppendRequest{Amount: big.NewInt(1)})
	require.NoError(t, err)

	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrReverted)
}

func TestWaitHonorsContext(t *testing.T) {
	c, backend, _ := newContract(t)
	backend.misses = 1 << 30

	pending, err := c.AppendRecord(context.Background(), AppendRequest{Amount: big.NewInt(1)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pending.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
