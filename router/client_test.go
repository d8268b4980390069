package router

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ClipFinance/swapbox/chains/evm/evmtest"
	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdt   = common.HexToAddress("0x55d398326f99059ff775485246999027b3197955")
	sikka  = common.HexToAddress("0xcca556aecf1e8f368628c7543c382303887265ed")
	router = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	wallet = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

type stubSigner struct{}

func (stubSigner) Address() common.Address {
	return wallet
}

func (stubSigner) SignTx(_ context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	return tx, nil
}

type stubSource struct{}

func (stubSource) Signer() (signer.TxSigner, error) {
	return stubSigner{}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name      string
		amountOut *big.Int
		divisor   int64
		want      *big.Int
	}{
		{"five percent of two tokens", ether(2), 20, big.NewInt(1_900_000_000_000_000_000)},
		{"rounds slippage down", big.NewInt(39), 20, big.NewInt(38)},
		{"tiny amounts keep everything", big.NewInt(19), 20, big.NewInt(19)},
		{"zero", big.NewInt(0), 20, big.NewInt(0)},
		{"ten percent", big.NewInt(1000), 10, big.NewInt(900)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinAmountOut(tt.amountOut, tt.divisor)
			assert.Equal(t, 0, got.Cmp(tt.want), "got %s want %s", got, tt.want)
			assert.LessOrEqual(t, got.Cmp(tt.amountOut), 0)
		})
	}
}

func TestDeadline(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assert.Equal(t, big.NewInt(1_700_000_600), Deadline(now, 600*time.Second))
}

func TestQuote(t *testing.T) {
	chain := evmtest.NewChain()
	chain.AmountsOut = func(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
		return []*big.Int{amountIn, ether(2)}, nil
	}
	client := NewClient(router, chain, stubSource{}, quietLogger())

	quote, err := client.Quote(context.Background(), ether(1), usdt, sikka)
	require.NoError(t, err)
	assert.Equal(t, ether(1), quote.AmountIn)
	assert.Equal(t, ether(2), quote.AmountOut)

	calls := chain.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "getAmountsOut", calls[0].Method)
	assert.Equal(t, []common.Address{usdt, sikka}, calls[0].Args[1])
}

func TestQuoteRejectsEmptyRoute(t *testing.T) {
	tests := []struct {
		name    string
		amounts func(*big.Int, []common.Address) ([]*big.Int, error)
	}{
		{"no liquidity", func(in *big.Int, _ []common.Address) ([]*big.Int, error) {
			return []*big.Int{in, big.NewInt(0)}, nil
		}},
		{"short result", func(in *big.Int, _ []common.Address) ([]*big.Int, error) {
			return []*big.Int{in}, nil
		}},
		{"call reverted", func(*big.Int, []common.Address) ([]*big.Int, error) {
			return nil, errors.New("execution reverted: INSUFFICIENT_LIQUIDITY")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := evmtest.NewChain()
			chain.AmountsOut = tt.amounts
			client := NewClient(router, chain, stubSource{}, quietLogger())

			_, err := client.Quote(context.Background(), ether(1), usdt, sikka)
			assert.Error(t, err)
		})
	}
}

func TestSwapExactTokensForTokens(t *testing.T) {
	chain := evmtest.NewChain()
	chain.AddToken(usdt, 18)
	chain.AddToken(sikka, 18)
	chain.SetBalance(usdt, wallet, ether(1))
	chain.SetAllowance(usdt, wallet, router, ether(1))
	chain.AmountsOut = func(amountIn *big.Int, _ []common.Address) ([]*big.Int, error) {
		return []*big.Int{amountIn, ether(2)}, nil
	}
	client := NewClient(router, chain, stubSource{}, quietLogger())

	deadline := big.NewInt(1_700_000_600)
	tx, err := client.SwapExactTokensForTokens(context.Background(), ether(1), MinAmountOut(ether(2), 20), []common.Address{usdt, sikka}, wallet, deadline)
	require.NoError(t, err)

	sent := chain.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, tx.Hash, sent[0].TxHash)
	assert.Equal(t, "swapExactTokensForTokens", sent[0].Method)
	assert.Equal(t, router, sent[0].To)
	assert.Equal(t, ether(1), sent[0].Args[0])
	assert.Equal(t, big.NewInt(1_900_000_000_000_000_000), sent[0].Args[1])
	assert.Equal(t, []common.Address{usdt, sikka}, sent[0].Args[2])
	assert.Equal(t, wallet, sent[0].Args[3])
	assert.Equal(t, deadline, sent[0].Args[4])

	assert.Equal(t, ether(2), chain.Balance(sikka, wallet))
	assert.Zero(t, chain.Balance(usdt, wallet).Sign())
}
