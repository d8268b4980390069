package evm

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	routerAddr = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	walletAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type fakeRPC struct {
	mu sync.Mutex

	nonce       uint64
	gas         uint64
	gasPrice    *big.Int
	tip         *big.Int
	baseFee     *big.Int
	estimateErr error
	sendErr     error
	sent        []*ethtypes.Transaction
	estimated   []ethereum.CallMsg

	callResult []byte
	callErr    error
	calls      []ethereum.CallMsg

	block         uint64
	receipt       *ethtypes.Receipt
	receiptAfter  int
	receiptChecks int

	closed bool
}

func (f *fakeRPC) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callResult, f.callErr
}

func (f *fakeRPC) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeRPC) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimated = append(f.estimated, msg)
	return f.gas, f.estimateErr
}

func (f *fakeRPC) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeRPC) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeRPC) HeaderByNumber(context.Context, *big.Int) (*ethtypes.Header, error) {
	return &ethtypes.Header{BaseFee: f.baseFee, Number: new(big.Int).SetUint64(f.block)}, nil
}

func (f *fakeRPC) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeRPC) TransactionReceipt(context.Context, common.Hash) (*ethtypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptChecks++
	if f.receipt == nil || f.receiptChecks <= f.receiptAfter {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeRPC) BlockNumber(context.Context) (uint64, error) {
	return f.block, nil
}

func (f *fakeRPC) SubscribeNewHead(context.Context, chan<- *ethtypes.Header) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions are not supported")
}

func (f *fakeRPC) Close() {
	f.closed = true
}

type stubSigner struct {
	addr   common.Address
	err    error
	signed int
}

func (s *stubSigner) Address() common.Address {
	return s.addr
}

func (s *stubSigner) SignTx(_ context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.signed++
	return tx, nil
}

func newTestChain(rpc *fakeRPC, txType uint64) *evm {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return newEvmChain(&types.ChainConfig{
		Name:         "bsc",
		ChainID:      56,
		RpcUrl:       "http://localhost:8545",
		TxType:       txType,
		WaitNBlocks:  1,
		PollInterval: time.Millisecond,
	}, logger, rpc)
}

func TestSendTransactionLegacy(t *testing.T) {
	rpc := &fakeRPC{nonce: 7, gas: 100000, gasPrice: big.NewInt(10)}
	chain := newTestChain(rpc, TxTypeLegacy)
	s := &stubSigner{addr: walletAddr}

	tx, err := chain.SendTransaction(context.Background(), s, routerAddr, []byte{0x01, 0x02})
	require.NoError(t, err)
	require.Len(t, rpc.sent, 1)

	sent := rpc.sent[0]
	assert.Equal(t, uint8(ethtypes.LegacyTxType), sent.Type())
	assert.Equal(t, uint64(110000), sent.Gas())
	assert.Equal(t, big.NewInt(15), sent.GasPrice())
	assert.Equal(t, routerAddr, *sent.To())
	assert.Equal(t, []byte{0x01, 0x02}, sent.Data())

	assert.Equal(t, sent.Hash().Hex(), tx.Hash)
	assert.Equal(t, uint64(7), tx.Nonce)
	assert.Equal(t, uint64(56), tx.ChainID)
	assert.Equal(t, walletAddr.Hex(), tx.From)
	assert.Equal(t, routerAddr.Hex(), tx.To)

	require.Len(t, rpc.estimated, 1)
	assert.Equal(t, walletAddr, rpc.estimated[0].From)
}

func TestSendTransactionEIP1559(t *testing.T) {
	rpc := &fakeRPC{gas: 50000, tip: big.NewInt(2), baseFee: big.NewInt(100)}
	chain := newTestChain(rpc, TxTypeEIP1559)

	_, err := chain.SendTransaction(context.Background(), &stubSigner{addr: walletAddr}, routerAddr, nil)
	require.NoError(t, err)
	require.Len(t, rpc.sent, 1)

	sent := rpc.sent[0]
	assert.Equal(t, uint8(ethtypes.DynamicFeeTxType), sent.Type())
	assert.Equal(t, big.NewInt(132), sent.GasFeeCap())
	assert.Equal(t, big.NewInt(2), sent.GasTipCap())
	assert.Equal(t, big.NewInt(56), sent.ChainId())
}

func TestSendTransactionKeepsSignerError(t *testing.T) {
	refused := errors.New("user denied transaction signature")
	rpc := &fakeRPC{gas: 21000, gasPrice: big.NewInt(1)}
	chain := newTestChain(rpc, TxTypeLegacy)

	_, err := chain.SendTransaction(context.Background(), &stubSigner{addr: walletAddr, err: refused}, routerAddr, nil)
	assert.Equal(t, refused, err)
	assert.Empty(t, rpc.sent)
}

func TestSendTransactionEstimateFailureIsNotSigned(t *testing.T) {
	rpc := &fakeRPC{estimateErr: errors.New("execution reverted")}
	chain := newTestChain(rpc, TxTypeLegacy)
	s := &stubSigner{addr: walletAddr}

	_, err := chain.SendTransaction(context.Background(), s, routerAddr, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to estimate gas")
	assert.Zero(t, s.signed)
}

func TestCallContract(t *testing.T) {
	rpc := &fakeRPC{callResult: []byte{0xff}}
	chain := newTestChain(rpc, TxTypeLegacy)

	result, err := chain.CallContract(context.Background(), routerAddr, []byte{0xaa})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff}, result)
	require.Len(t, rpc.calls, 1)
	assert.Equal(t, routerAddr, *rpc.calls[0].To)

	rpc.callResult = nil
	_, err = chain.CallContract(context.Background(), routerAddr, []byte{0xaa})
	assert.Error(t, err)
}

func TestClosedChainRejectsCalls(t *testing.T) {
	rpc := &fakeRPC{}
	chain := newTestChain(rpc, TxTypeLegacy)
	chain.Close()

	assert.True(t, rpc.closed)
	_, err := chain.CallContract(context.Background(), routerAddr, nil)
	assert.Error(t, err)
}

func TestWaitTransactionConfirmationDone(t *testing.T) {
	rpc := &fakeRPC{
		block:        11,
		receipt:      &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(10)},
		receiptAfter: 2,
	}
	chain := newTestChain(rpc, TxTypeLegacy)

	status, err := chain.WaitTransactionConfirmation(context.Background(), &types.Transaction{Hash: "0x01"})
	require.NoError(t, err)
	assert.Equal(t, types.TxDone, status)
	assert.Equal(t, 3, rpc.receiptChecks)
}

func TestWaitTransactionConfirmationWaitsForBlocks(t *testing.T) {
	rpc := &fakeRPC{
		block:   10,
		receipt: &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(10)},
	}
	chain := newTestChain(rpc, TxTypeLegacy)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	status, err := chain.WaitTransactionConfirmation(ctx, &types.Transaction{Hash: "0x01"})
	assert.Equal(t, types.TxPending, status)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitTransactionConfirmationReverted(t *testing.T) {
	rpc := &fakeRPC{
		block:   12,
		receipt: &ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed, BlockNumber: big.NewInt(10)},
	}
	chain := newTestChain(rpc, TxTypeLegacy)

	status, err := chain.WaitTransactionConfirmation(context.Background(), &types.Transaction{Hash: "0x01"})
	require.NoError(t, err)
	assert.Equal(t, types.TxFailed, status)
}

func TestConnectionManagerReconnectSwapsClient(t *testing.T) {
	old := &fakeRPC{}
	fresh := &fakeRPC{block: 5}
	chain := newTestChain(old, TxTypeLegacy)
	chain.dial = func(context.Context, string) (rpcClient, error) {
		return fresh, nil
	}

	manager := &evmConnectionManager{chain: chain}
	require.NoError(t, manager.Reconnect(context.Background()))
	assert.True(t, old.closed)
	require.NoError(t, manager.CheckConnection(context.Background()))

	client, err := chain.getClient()
	require.NoError(t, err)
	assert.Same(t, fresh, client)
}
