// Package token reads and writes one ERC20 contract of the swap pair.
package token

import (
	"context"
	"math/big"
	"sync"

	"github.com/ClipFinance/swapbox/chains/evm"
	"github.com/ClipFinance/swapbox/chains/evm/contracts"
	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/common/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SignerSource hands out the signing capability of the active account.
type SignerSource interface {
	Signer() (signer.TxSigner, error)
}

// Client wraps one ERC20 contract.
type Client struct {
	address common.Address
	backend evm.ContractBackend
	signers SignerSource
	logger  *logrus.Logger

	decimalsMutex sync.Mutex
	decimals      uint8
	hasDecimals   bool
}

// NewClient creates a token client.
//
// Parameters:
// - address: the token contract address.
// - backend: the chain used for calls and transactions.
// - signers: the source of the signing capability for writes. It may be nil for read-only use.
// - logger: the logger for logging events.
//
// Returns:
// - *Client: the new token client.
func NewClient(address common.Address, backend evm.ContractBackend, signers SignerSource, logger *logrus.Logger) *Client {
	return &Client{
		address: address,
		backend: backend,
		signers: signers,
		logger:  logger,
	}
}

// Address returns the token contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// Decimals returns the token decimals. The value is read once and cached; failures are not cached.
func (c *Client) Decimals(ctx context.Context) (uint8, error) {
	c.decimalsMutex.Lock()
	defer c.decimalsMutex.Unlock()

	if c.hasDecimals {
		return c.decimals, nil
	}

	value, err := c.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := value.(uint8)
	if !ok {
		return 0, errors.Errorf("unexpected decimals type %T", value)
	}

	c.decimals = decimals
	c.hasDecimals = true

	c.logger.WithFields(logrus.Fields{
		"token":    c.address.Hex(),
		"decimals": decimals,
	}).Debug("Token decimals cached")

	return decimals, nil
}

// Descriptor returns the token address with its decimals.
func (c *Client) Descriptor(ctx context.Context) (types.TokenDescriptor, error) {
	decimals, err := c.Decimals(ctx)
	if err != nil {
		return types.TokenDescriptor{}, err
	}
	return types.TokenDescriptor{Address: c.address, Decimals: decimals}, nil
}

// BalanceOf returns the balance of owner in the smallest unit.
func (c *Client) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	value, err := c.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return toBigInt("balanceOf", value)
}

// HumanBalanceOf returns the balance of owner as a human decimal string.
func (c *Client) HumanBalanceOf(ctx context.Context, owner common.Address) (string, error) {
	decimals, err := c.Decimals(ctx)
	if err != nil {
		return "", err
	}

	balance, err := c.BalanceOf(ctx, owner)
	if err != nil {
		return "", err
	}

	return units.FormatUnits(balance, decimals), nil
}

// Allowance returns how much spender may currently spend on behalf of owner.
func (c *Client) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	value, err := c.call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return toBigInt("allowance", value)
}

// Approve sets the allowance of spender to exactly amount.
//
// Parameters:
// - ctx: the context for managing the request.
// - spender: the address allowed to spend.
// - amount: the allowance in the smallest unit.
//
// Returns:
// - *types.Transaction: the broadcast approval transaction.
// - error: an error if signing or broadcasting fails.
func (c *Client) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return c.send(ctx, "approve", spender, amount)
}

// Transfer moves amount to recipient.
//
// Parameters:
// - ctx: the context for managing the request.
// - recipient: the receiving address.
// - amount: the amount in the smallest unit.
//
// Returns:
// - *types.Transaction: the broadcast transfer transaction.
// - error: an error if signing or broadcasting fails.
func (c *Client) Transfer(ctx context.Context, recipient common.Address, amount *big.Int) (*types.Transaction, error) {
	return c.send(ctx, "transfer", recipient, amount)
}

// call executes a read-only method with a single return value.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	data, err := contracts.ERC20.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	result, err := c.backend.CallContract(ctx, c.address, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s on %s", method, c.address.Hex())
	}

	values, err := contracts.ERC20.Unpack(method, result)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method)
	}
	if len(values) != 1 {
		return nil, errors.Errorf("unexpected %s result length %d", method, len(values))
	}

	return values[0], nil
}

func toBigInt(method string, value interface{}) (*big.Int, error) {
	amount, ok := value.(*big.Int)
	if !ok || amount == nil {
		return nil, errors.Errorf("unexpected %s result type %T", method, value)
	}
	return amount, nil
}

func (c *Client) send(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	if c.signers == nil {
		return nil, errors.Errorf("token client %s is read-only", c.address.Hex())
	}

	s, err := c.signers.Signer()
	if err != nil {
		return nil, err
	}

	data, err := contracts.ERC20.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	tx, err := c.backend.SendTransaction(ctx, s, c.address, data)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"token":  c.address.Hex(),
		"method": method,
		"txHash": tx.Hash,
	}).Info("Token transaction sent")

	return tx, nil
}
