// Package router talks to a Uniswap V2 style router: quotes and exact-input swaps.
package router

import (
	"context"
	"math/big"
	"time"

	"github.com/ClipFinance/swapbox/chains/evm"
	"github.com/ClipFinance/swapbox/chains/evm/contracts"
	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SignerSource hands out the signing capability of the active account.
type SignerSource interface {
	Signer() (signer.TxSigner, error)
}

// Client wraps the router contract.
type Client struct {
	address common.Address
	backend evm.ContractBackend
	signers SignerSource
	logger  *logrus.Logger
}

// NewClient creates a router client.
func NewClient(address common.Address, backend evm.ContractBackend, signers SignerSource, logger *logrus.Logger) *Client {
	return &Client{
		address: address,
		backend: backend,
		signers: signers,
		logger:  logger,
	}
}

// Address returns the router contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// GetAmountsOut returns the router's amounts for every hop of path, starting with amountIn.
func (c *Client) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := contracts.Router.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack getAmountsOut")
	}

	result, err := c.backend.CallContract(ctx, c.address, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call getAmountsOut")
	}

	values, err := contracts.Router.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack getAmountsOut")
	}
	if len(values) != 1 {
		return nil, errors.Errorf("unexpected getAmountsOut result length %d", len(values))
	}

	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, errors.Errorf("unexpected getAmountsOut result type %T", values[0])
	}
	return amounts, nil
}

// Quote asks the router how much tokenOut amountIn of tokenIn buys over the direct pair.
//
// Parameters:
// - ctx: the context for managing the request.
// - amountIn: the exact input in the smallest unit of tokenIn.
// - tokenIn: the token sold.
// - tokenOut: the token bought.
//
// Returns:
// - types.Quote: the quote.
// - error: an error if the call fails, the result is malformed or the pair has no liquidity.
func (c *Client) Quote(ctx context.Context, amountIn *big.Int, tokenIn, tokenOut common.Address) (types.Quote, error) {
	amounts, err := c.GetAmountsOut(ctx, amountIn, []common.Address{tokenIn, tokenOut})
	if err != nil {
		return types.Quote{}, err
	}
	if len(amounts) != 2 {
		return types.Quote{}, errors.Errorf("router returned %d amounts for a 2 token path", len(amounts))
	}

	amountOut := amounts[len(amounts)-1]
	if amountOut == nil || amountOut.Sign() <= 0 {
		return types.Quote{}, errors.New("router quoted zero output, pair has no liquidity")
	}

	return types.Quote{
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
	}, nil
}

// SwapExactTokensForTokens submits an exact-input swap along path.
//
// Parameters:
// - ctx: the context for managing the request.
// - amountIn: the exact input.
// - amountOutMin: the least output accepted before the swap reverts.
// - path: the token path, input first.
// - to: the recipient of the output tokens.
// - deadline: unix seconds after which the swap reverts.
//
// Returns:
// - *types.Transaction: the broadcast swap transaction.
// - error: an error if signing or broadcasting fails.
func (c *Client) SwapExactTokensForTokens(
	ctx context.Context,
	amountIn, amountOutMin *big.Int,
	path []common.Address,
	to common.Address,
	deadline *big.Int,
) (*types.Transaction, error) {
	if c.signers == nil {
		return nil, errors.New("router client is read-only")
	}

	s, err := c.signers.Signer()
	if err != nil {
		return nil, err
	}

	data, err := contracts.Router.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack swapExactTokensForTokens")
	}

	tx, err := c.backend.SendTransaction(ctx, s, c.address, data)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"amountIn":     amountIn.String(),
		"amountOutMin": amountOutMin.String(),
		"deadline":     deadline.String(),
		"txHash":       tx.Hash,
	}).Info("Swap transaction sent")

	return tx, nil
}

// MinAmountOut returns amountOut less 1/divisor of it, rounded in favor of the trader's protection.
// A divisor of 20 accepts up to 5% slippage.
func MinAmountOut(amountOut *big.Int, divisor int64) *big.Int {
	slippage := new(big.Int).Quo(amountOut, big.NewInt(divisor))
	return new(big.Int).Sub(amountOut, slippage)
}

// Deadline returns now + offset in unix seconds.
func Deadline(now time.Time, offset time.Duration) *big.Int {
	return big.NewInt(now.Add(offset).Unix())
}
