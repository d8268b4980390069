package swapbox

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ClipFinance/swapbox/chains/evm/evmtest"
	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var (
	usdt         = common.HexToAddress("0x55d398326f99059ff775485246999027b3197955")
	sikka        = common.HexToAddress("0xcca556aecf1e8f368628c7543c382303887265ed")
	pancake      = common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")
	feeRecipient = common.HexToAddress("0xd83af568C4FBeb558D37998b3d18D20aCd20349f")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func testConfig() types.SwapConfig {
	return types.SwapConfig{
		Chain:        types.ChainConfig{Name: "bsc", ChainID: 56},
		BaseToken:    usdt,
		QuoteToken:   sikka,
		Router:       pancake,
		FeeRecipient: feeRecipient,
		BaseSymbol:   "USDT",
		QuoteSymbol:  "SIKKA",
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestChain() *evmtest.Chain {
	chain := evmtest.NewChain()
	chain.AddToken(usdt, 18)
	chain.AddToken(sikka, 18)
	chain.AmountsOut = func(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
		return []*big.Int{amountIn, new(big.Int).Mul(amountIn, big.NewInt(2))}, nil
	}
	return chain
}

func sentMethods(chain *evmtest.Chain) []string {
	var methods []string
	for _, call := range chain.Sent() {
		methods = append(methods, call.Method)
	}
	return methods
}

func TestSwapBoxRoundTrip(t *testing.T) {
	chain := newTestChain()
	provider, err := wallet.NewKeyProviderFromHex(testKey, 56)
	require.NoError(t, err)
	account, err := provider.RequestAccounts(context.Background())
	require.NoError(t, err)
	owner := account[0]
	chain.SetBalance(usdt, owner, ether(10))

	box, err := New(testConfig(), chain, provider, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, types.Forward, box.Direction())
	assert.Equal(t, DefaultAmount, box.Amount())
	assert.Equal(t, "", box.ShortAddress())

	_, err = box.Swap(context.Background())
	assert.ErrorIs(t, err, swaperrors.ErrUserRejected)
	assert.Empty(t, chain.Calls())

	connected, err := box.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, owner, connected)
	assert.Equal(t, ShortAddress(owner), box.ShortAddress())
	assert.Equal(t, "Connected: "+ShortAddress(owner), box.Status())

	balances, ok := box.Balances()
	require.True(t, ok)
	assert.Equal(t, "10", balances.Base)
	assert.Equal(t, "0", balances.Quote)

	assert.Equal(t, "Note: 0.01 USDT will be sent as a swap fee.", box.FeeNotice())

	quoted, err := box.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", quoted)

	outcome, err := box.Swap(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.IsConfirmed())
	assert.Equal(t, "Swap successful! Tx: https://bscscan.com/tx/"+outcome.TxHash, box.Status())
	assert.Equal(t, []string{"transfer", "approve", "swapExactTokensForTokens"}, sentMethods(chain))

	balances, ok = box.Balances()
	require.True(t, ok)
	assert.Equal(t, "8.99", balances.Base)
	assert.Equal(t, "2", balances.Quote)
	assert.Zero(t, chain.Allowance(usdt, owner, pancake).Sign())

	assert.Equal(t, types.Reverse, box.ToggleDirection(context.Background()))
	assert.Equal(t, "", box.FeeNotice())

	box.SetAmount("0.5")
	outcome, err = box.Swap(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.IsConfirmed())
	assert.Equal(t, []string{"transfer", "approve", "swapExactTokensForTokens", "approve", "swapExactTokensForTokens"}, sentMethods(chain))

	balances, _ = box.Balances()
	assert.Equal(t, "9.99", balances.Base)
	assert.Equal(t, "1.5", balances.Quote)
}

func TestSwapBoxWithoutWallet(t *testing.T) {
	chain := newTestChain()
	box, err := New(testConfig(), chain, nil, quietLogger())
	require.NoError(t, err)

	_, err = box.Connect(context.Background())
	assert.ErrorIs(t, err, swaperrors.ErrNoProviderDetected)
	assert.NotEmpty(t, box.Status())

	outcome, err := box.Swap(context.Background())
	assert.ErrorIs(t, err, swaperrors.ErrNoProviderDetected)
	assert.Equal(t, swaperrors.KindNoProviderDetected, outcome.Reason)
	assert.True(t, strings.HasPrefix(box.Status(), "Swap failed: "))
	assert.Empty(t, chain.Calls())
}

func TestSwapBoxRejectsInvalidAmount(t *testing.T) {
	chain := newTestChain()
	provider, err := wallet.NewKeyProviderFromHex(testKey, 56)
	require.NoError(t, err)

	box, err := New(testConfig(), chain, provider, quietLogger())
	require.NoError(t, err)
	_, err = box.Connect(context.Background())
	require.NoError(t, err)

	box.SetAmount("1.5.2")
	_, err = box.Swap(context.Background())
	assert.ErrorIs(t, err, swaperrors.ErrInvalidAmount)
	assert.Empty(t, chain.Sent())
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x55d3...7955", ShortAddress(usdt))
}
