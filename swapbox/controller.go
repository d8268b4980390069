// Package swapbox wires the swap components for one configured pair and keeps the
// interactive state of a swap box: direction, amount, balances and the last status line.
package swapbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClipFinance/swapbox/balance"
	"github.com/ClipFinance/swapbox/chains/evm"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/common/units"
	"github.com/ClipFinance/swapbox/router"
	"github.com/ClipFinance/swapbox/swap"
	"github.com/ClipFinance/swapbox/token"
	"github.com/ClipFinance/swapbox/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// DefaultAmount is the amount a new swap box starts with.
const DefaultAmount = "1"

// Controller is a UI-neutral swap box.
type Controller struct {
	cfg      types.SwapConfig
	session  *wallet.Session
	base     *token.Client
	quote    *token.Client
	router   *router.Client
	balances *balance.Reader
	swapper  *swap.Orchestrator
	logger   *logrus.Logger

	mu        sync.RWMutex
	direction types.SwapDirection
	amount    string
	status    string
}

// New builds the swap components over chain and provider.
//
// Parameters:
// - cfg: the deployment configuration.
// - chain: the chain the pair lives on.
// - provider: the wallet provider, nil when no wallet is present.
// - logger: the logger for logging events.
// - observers: extra observers of swap transitions.
//
// Returns:
// - *Controller: the controller, Forward with the default amount.
// - error: an error if the configuration is invalid.
func New(cfg types.SwapConfig, chain evm.Chain, provider wallet.Provider, logger *logrus.Logger, observers ...swap.Observer) (*Controller, error) {
	cfg.ApplyDefaults()

	session := wallet.NewSession(provider, logger)
	c := &Controller{
		cfg:       cfg,
		session:   session,
		base:      token.NewClient(cfg.BaseToken, chain, session, logger),
		quote:     token.NewClient(cfg.QuoteToken, chain, session, logger),
		router:    router.NewClient(cfg.Router, chain, session, logger),
		logger:    logger,
		direction: types.Forward,
		amount:    DefaultAmount,
	}
	c.balances = balance.NewReader(c.base, c.quote, logger)

	opts := []swap.Option{
		swap.WithBalanceRefresher(c.balances),
		swap.WithObserver(c),
	}
	for _, observer := range observers {
		opts = append(opts, swap.WithObserver(observer))
	}

	swapper, err := swap.New(cfg, session, c.base, c.quote, c.router, chain, logger, opts...)
	if err != nil {
		return nil, err
	}
	c.swapper = swapper

	session.OnAccountChanged(func(account common.Address) {
		c.setStatus(fmt.Sprintf("Connected: %s", ShortAddress(account)))
	})

	return c, nil
}

// Connect connects the wallet and loads its balances.
// A balance read failure is logged; the account stays connected.
func (c *Controller) Connect(ctx context.Context) (common.Address, error) {
	account, err := c.session.Connect(ctx)
	if err != nil {
		c.setStatus(err.Error())
		return common.Address{}, err
	}

	c.refresh(ctx)
	return account, nil
}

// ToggleDirection flips the swap direction and reloads balances when connected.
func (c *Controller) ToggleDirection(ctx context.Context) types.SwapDirection {
	c.mu.Lock()
	c.direction = c.direction.Toggle()
	direction := c.direction
	c.mu.Unlock()

	c.refresh(ctx)
	return direction
}

// Direction returns the selected direction.
func (c *Controller) Direction() types.SwapDirection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.direction
}

// SetDirection selects a direction without reloading balances.
func (c *Controller) SetDirection(direction types.SwapDirection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.direction = direction
}

// SetAmount sets the human amount of the token sold. It is validated when swapping.
func (c *Controller) SetAmount(amount string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amount = amount
}

// Amount returns the entered amount.
func (c *Controller) Amount() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.amount
}

// Swap swaps the entered amount in the selected direction.
func (c *Controller) Swap(ctx context.Context) (*types.TransactionOutcome, error) {
	c.mu.RLock()
	req := types.SwapRequest{
		Direction:     c.direction,
		HumanAmountIn: c.amount,
	}
	c.mu.RUnlock()

	if account, err := c.session.Account(); err == nil {
		req.WalletAddress = account
	}

	return c.swapper.Swap(ctx, req)
}

// Quote returns the current router quote for the entered amount, in human units of the token bought.
func (c *Controller) Quote(ctx context.Context) (string, error) {
	direction := c.Direction()
	in, out := c.base, c.quote
	if direction == types.Reverse {
		in, out = c.quote, c.base
	}

	inDecimals, err := in.Decimals(ctx)
	if err != nil {
		return "", err
	}
	outDecimals, err := out.Decimals(ctx)
	if err != nil {
		return "", err
	}

	amountIn, err := units.ParsePositiveUnits(c.Amount(), inDecimals)
	if err != nil {
		return "", err
	}

	quote, err := c.router.Quote(ctx, amountIn, in.Address(), out.Address())
	if err != nil {
		return "", err
	}
	return units.FormatUnits(quote.AmountOut, outDecimals), nil
}

// Balances returns the last loaded balances.
func (c *Controller) Balances() (types.BalancesSnapshot, bool) {
	return c.balances.Snapshot()
}

// FeeNotice returns the fee note shown before a Forward swap, or "" for Reverse.
func (c *Controller) FeeNotice() string {
	if !c.Direction().ChargesFee() {
		return ""
	}
	return fmt.Sprintf("Note: %s %s will be sent as a swap fee.", c.cfg.FeeAmount, c.cfg.SymbolOf(c.cfg.BaseToken))
}

// Status returns the last status line.
func (c *Controller) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// ShortAddress returns the connected account in 0x1234...abcd form, or "" when not connected.
func (c *Controller) ShortAddress() string {
	account, err := c.session.Account()
	if err != nil {
		return ""
	}
	return ShortAddress(account)
}

// OnTransition records the status line of every swap transition.
func (c *Controller) OnTransition(event swap.Event) {
	c.setStatus(event.Status)
}

func (c *Controller) refresh(ctx context.Context) {
	account, err := c.session.Account()
	if err != nil {
		return
	}
	if _, err := c.balances.Refresh(ctx, account); err != nil {
		c.logger.WithError(err).Warn("Failed to load balances")
	}
}

func (c *Controller) setStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// ShortAddress abbreviates an address to its first 6 and last 4 characters.
func ShortAddress(address common.Address) string {
	hex := address.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
