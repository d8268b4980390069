// Package evmtest provides an in-memory chain that serves the ERC20 and router
// ABIs, for tests of the packages built on chains/evm.
package evmtest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ClipFinance/swapbox/chains/evm/contracts"
	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Call is one recorded contract interaction.
type Call struct {
	To     common.Address
	From   common.Address
	Method string
	Args   []interface{}
	TxHash string
}

// Chain is a fake evm.Chain. Token state changes are applied when a transaction is
// broadcast with a TxDone status.
type Chain struct {
	mu sync.Mutex

	decimals   map[common.Address]uint8
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[[2]common.Address]*big.Int

	// AmountsOut answers getAmountsOut. The default returns amountIn for every hop.
	AmountsOut func(amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	// CallErrors fails read calls by method name.
	CallErrors map[string]error
	// SendErrors fails broadcasts by method name.
	SendErrors map[string]error
	// Statuses sets the receipt status of transactions by method name. Unset methods confirm.
	Statuses map[string]types.TransactionStatus

	calls    []Call
	sent     []Call
	statuses map[string]types.TransactionStatus
	nonce    uint64
}

// NewChain creates an empty fake chain.
func NewChain() *Chain {
	return &Chain{
		decimals:   make(map[common.Address]uint8),
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[[2]common.Address]*big.Int),
		CallErrors: make(map[string]error),
		SendErrors: make(map[string]error),
		Statuses:   make(map[string]types.TransactionStatus),
		statuses:   make(map[string]types.TransactionStatus),
	}
}

// AddToken registers a token with its decimals.
func (c *Chain) AddToken(token common.Address, decimals uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decimals[token] = decimals
	c.balances[token] = make(map[common.Address]*big.Int)
	c.allowances[token] = make(map[[2]common.Address]*big.Int)
}

// SetBalance sets the balance of owner.
func (c *Chain) SetBalance(token, owner common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[token][owner] = new(big.Int).Set(amount)
}

// Balance returns the balance of owner.
func (c *Chain) Balance(token, owner common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceLocked(token, owner)
}

// SetAllowance sets the allowance of spender over owner's tokens.
func (c *Chain) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowances[token][[2]common.Address{owner, spender}] = new(big.Int).Set(amount)
}

// Allowance returns the allowance of spender over owner's tokens.
func (c *Chain) Allowance(token, owner, spender common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowanceLocked(token, owner, spender)
}

// Calls returns the recorded read calls.
func (c *Chain) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallCount returns how many read calls of method were made.
func (c *Chain) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

// Sent returns the recorded broadcasts.
func (c *Chain) Sent() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.sent...)
}

// CallContract implements evm.ContractBackend.
func (c *Chain) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	method, args, err := decode(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, Call{To: to, Method: method.Name, Args: args})
	if err := c.CallErrors[method.Name]; err != nil {
		return nil, err
	}

	var out []interface{}
	switch method.Name {
	case "decimals":
		decimals, ok := c.decimals[to]
		if !ok {
			return nil, errors.Errorf("unknown token %s", to.Hex())
		}
		out = []interface{}{decimals}
	case "balanceOf":
		out = []interface{}{c.balanceLocked(to, args[0].(common.Address))}
	case "allowance":
		out = []interface{}{c.allowanceLocked(to, args[0].(common.Address), args[1].(common.Address))}
	case "getAmountsOut":
		amounts, err := c.amountsOut(args[0].(*big.Int), args[1].([]common.Address))
		if err != nil {
			return nil, err
		}
		out = []interface{}{amounts}
	default:
		return nil, errors.Errorf("method %s is not callable", method.Name)
	}

	return method.Outputs.Pack(out...)
}

// SendTransaction implements evm.ContractBackend. The transaction is signed with s so
// signing refusals surface the same way they do on a real chain.
func (c *Chain) SendTransaction(ctx context.Context, s signer.TxSigner, to common.Address, data []byte) (*types.Transaction, error) {
	method, args, err := decode(data)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	nonce := c.nonce
	c.mu.Unlock()

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{Nonce: nonce, To: &to, Gas: 100000, GasPrice: big.NewInt(1), Data: data})
	signed, err := s.SignTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.SendErrors[method.Name]; err != nil {
		return nil, err
	}

	c.nonce++
	hash := signed.Hash().Hex()
	from := s.Address()
	c.sent = append(c.sent, Call{To: to, From: from, Method: method.Name, Args: args, TxHash: hash})

	status, ok := c.Statuses[method.Name]
	if !ok {
		status = types.TxDone
	}
	c.statuses[hash] = status

	if status == types.TxDone {
		if err := c.apply(to, from, method.Name, args); err != nil {
			c.statuses[hash] = types.TxFailed
		}
	}

	return &types.Transaction{
		Hash:  hash,
		From:  from.Hex(),
		To:    to.Hex(),
		Nonce: nonce,
	}, nil
}

// WaitTransactionConfirmation implements evm.TransactionWatcher.
func (c *Chain) WaitTransactionConfirmation(ctx context.Context, tx *types.Transaction) (types.TransactionStatus, error) {
	c.mu.Lock()
	status, ok := c.statuses[tx.Hash]
	c.mu.Unlock()

	if !ok {
		return types.TxPending, errors.Errorf("unknown transaction %s", tx.Hash)
	}
	if status == types.TxPending {
		<-ctx.Done()
		return types.TxPending, ctx.Err()
	}
	return status, nil
}

// EstimateGas implements types.GasEstimator.
func (c *Chain) EstimateGas(context.Context, string, string, *big.Int, []byte) (uint64, error) {
	return 100000, nil
}

// Close implements evm.Chain.
func (c *Chain) Close() {}

func (c *Chain) apply(to, from common.Address, method string, args []interface{}) error {
	switch method {
	case "approve":
		c.allowances[to][[2]common.Address{from, args[0].(common.Address)}] = new(big.Int).Set(args[1].(*big.Int))
	case "transfer":
		return c.move(to, from, args[0].(common.Address), args[1].(*big.Int))
	case "swapExactTokensForTokens":
		amountIn := args[0].(*big.Int)
		amountOutMin := args[1].(*big.Int)
		path := args[2].([]common.Address)
		recipient := args[3].(common.Address)

		amounts, err := c.amountsOut(amountIn, path)
		if err != nil {
			return err
		}
		amountOut := amounts[len(amounts)-1]
		if amountOut.Cmp(amountOutMin) < 0 {
			return errors.New("INSUFFICIENT_OUTPUT_AMOUNT")
		}

		key := [2]common.Address{from, to}
		allowance := c.allowanceLocked(path[0], from, to)
		if allowance.Cmp(amountIn) < 0 {
			return errors.New("TRANSFER_FROM_FAILED")
		}
		c.allowances[path[0]][key] = new(big.Int).Sub(allowance, amountIn)

		if err := c.move(path[0], from, to, amountIn); err != nil {
			return err
		}
		out := path[len(path)-1]
		c.balances[out][recipient] = new(big.Int).Add(c.balanceLocked(out, recipient), amountOut)
	}
	return nil
}

func (c *Chain) move(token, from, to common.Address, amount *big.Int) error {
	balance := c.balanceLocked(token, from)
	if balance.Cmp(amount) < 0 {
		return errors.New("transfer amount exceeds balance")
	}
	c.balances[token][from] = new(big.Int).Sub(balance, amount)
	c.balances[token][to] = new(big.Int).Add(c.balanceLocked(token, to), amount)
	return nil
}

func (c *Chain) amountsOut(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if c.AmountsOut != nil {
		return c.AmountsOut(amountIn, path)
	}
	amounts := make([]*big.Int, len(path))
	for i := range amounts {
		amounts[i] = new(big.Int).Set(amountIn)
	}
	return amounts, nil
}

func (c *Chain) balanceLocked(token, owner common.Address) *big.Int {
	if balance, ok := c.balances[token][owner]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

func (c *Chain) allowanceLocked(token, owner, spender common.Address) *big.Int {
	if allowance, ok := c.allowances[token][[2]common.Address{owner, spender}]; ok {
		return new(big.Int).Set(allowance)
	}
	return new(big.Int)
}

func decode(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("calldata too short")
	}

	for _, parsed := range []abi.ABI{contracts.ERC20, contracts.Router} {
		method, err := parsed.MethodById(data[:4])
		if err != nil {
			continue
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to unpack %s arguments", method.Name)
		}
		return method, args, nil
	}

	return nil, nil, errors.Errorf("unknown selector %x", data[:4])
}
