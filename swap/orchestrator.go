// Package swap runs one exact-input swap of the configured pair from fee payment to confirmation.
package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ClipFinance/swapbox/chains/evm"
	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/common/units"
	"github.com/ClipFinance/swapbox/router"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Session provides the active wallet account.
type Session interface {
	Account() (common.Address, error)
}

// TokenClient is the ERC20 surface the swap flow needs.
type TokenClient interface {
	Address() common.Address
	Decimals(ctx context.Context) (uint8, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Transaction, error)
	Transfer(ctx context.Context, recipient common.Address, amount *big.Int) (*types.Transaction, error)
}

// RouterClient is the router surface the swap flow needs.
type RouterClient interface {
	Quote(ctx context.Context, amountIn *big.Int, tokenIn, tokenOut common.Address) (types.Quote, error)
	SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (*types.Transaction, error)
}

// BalanceRefresher reloads the displayed balances of an account.
type BalanceRefresher interface {
	Refresh(ctx context.Context, account common.Address) (types.BalancesSnapshot, error)
}

// Orchestrator drives swap attempts through
// Idle, FeeTransfer (forward only), Quoting, AllowanceCheck, Approving (when needed), Swapping
// and ends each in Confirmed or Failed. It runs one attempt at a time.
type Orchestrator struct {
	cfg     types.SwapConfig
	session Session
	base    TokenClient
	quote   TokenClient
	router  RouterClient
	watcher evm.TransactionWatcher
	logger  *logrus.Logger

	now       func() time.Time
	refresher BalanceRefresher
	observers []Observer

	running sync.Mutex

	stateMutex sync.RWMutex
	state      types.SwapState
}

// New creates an orchestrator for the configured pair.
//
// Parameters:
// - cfg: the deployment configuration. Unset policy values get their defaults.
// - session: the wallet session providing the account.
// - base: the client of cfg.BaseToken.
// - quote: the client of cfg.QuoteToken.
// - routerClient: the client of cfg.Router.
// - watcher: waits for transaction receipts.
// - logger: the logger for logging events.
// - opts: optional clock, balance refresher and observers.
//
// Returns:
// - *Orchestrator: the orchestrator, in Idle.
// - error: an error if the configuration is invalid or a token client does not match it.
func New(
	cfg types.SwapConfig,
	session Session,
	base, quote TokenClient,
	routerClient RouterClient,
	watcher evm.TransactionWatcher,
	logger *logrus.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if base.Address() != cfg.BaseToken {
		return nil, errors.Wrapf(swaperrors.ErrInvalidConfig, "base client is for %s, expected %s", base.Address().Hex(), cfg.BaseToken.Hex())
	}
	if quote.Address() != cfg.QuoteToken {
		return nil, errors.Wrapf(swaperrors.ErrInvalidConfig, "quote client is for %s, expected %s", quote.Address().Hex(), cfg.QuoteToken.Hex())
	}

	o := &Orchestrator{
		cfg:     cfg,
		session: session,
		base:    base,
		quote:   quote,
		router:  routerClient,
		watcher: watcher,
		logger:  logger,
		now:     time.Now,
		state:   types.StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// State returns the state of the current or last attempt.
func (o *Orchestrator) State() types.SwapState {
	o.stateMutex.RLock()
	defer o.stateMutex.RUnlock()
	return o.state
}

// Swap runs one swap attempt to a terminal state.
//
// Parameters:
// - ctx: bounds the whole attempt. Canceling it fails the attempt with Canceled.
// Transactions already broadcast are abandoned, not replaced.
// - req: the swap request.
//
// Returns:
// - *types.TransactionOutcome: the terminal outcome, nil only when another attempt is running.
// - error: swaperrors.ErrSwapInProgress if another attempt is running, or the classified
// *swaperrors.Error of a failed attempt.
func (o *Orchestrator) Swap(ctx context.Context, req types.SwapRequest) (*types.TransactionOutcome, error) {
	if !o.running.TryLock() {
		return nil, swaperrors.ErrSwapInProgress
	}
	defer o.running.Unlock()

	a := &attempt{
		id:  uuid.NewString(),
		req: req,
	}
	a.log = o.logger.WithFields(logrus.Fields{
		"swapID":    a.id,
		"direction": req.Direction.String(),
		"amount":    req.HumanAmountIn,
	})

	o.transition(a, types.StateIdle, StatusPreparing, "", nil)

	txHash, err := o.run(ctx, a)
	if err != nil {
		failure := swaperrors.New(swaperrors.KindNetworkError, err)
		o.transition(a, types.StateFailed, fmt.Sprintf(statusFailed, failure.Error()), failure.TxHash, failure)
		return types.Failed(failure), failure
	}

	o.transition(a, types.StateConfirmed, fmt.Sprintf(statusConfirmed, o.cfg.ExplorerURL(txHash)), txHash, nil)

	if o.refresher != nil {
		if _, err := o.refresher.Refresh(ctx, a.account); err != nil {
			a.log.WithError(err).Warn("Failed to refresh balances after swap")
		}
	}

	return types.Confirmed(txHash), nil
}

// attempt is the working state of one swap.
type attempt struct {
	id      string
	req     types.SwapRequest
	log     *logrus.Entry
	account common.Address
}

// run executes the steps and returns the confirmed swap hash or a classified error.
func (o *Orchestrator) run(ctx context.Context, a *attempt) (string, error) {
	account, err := o.session.Account()
	if err != nil {
		return "", err
	}
	if a.req.WalletAddress != (common.Address{}) && a.req.WalletAddress != account {
		return "", swaperrors.Newf(swaperrors.KindUserRejected,
			"request wallet %s is not the connected account %s", a.req.WalletAddress.Hex(), account.Hex())
	}
	a.account = account

	tokenIn, tokenOut := o.cfg.TokensFor(a.req.Direction)
	in := o.base
	if a.req.Direction == types.Reverse {
		in = o.quote
	}

	if err := units.ValidatePositive(a.req.HumanAmountIn); err != nil {
		return "", err
	}

	decimals, err := in.Decimals(ctx)
	if err != nil {
		return "", o.classify(ctx, swaperrors.KindNetworkError, errors.Wrap(err, "failed to read token decimals"))
	}

	amountIn, err := units.ParsePositiveUnits(a.req.HumanAmountIn, decimals)
	if err != nil {
		return "", err
	}

	var fee *big.Int
	if a.req.Direction.ChargesFee() {
		fee, err = units.ParsePositiveUnits(o.cfg.FeeAmount, decimals)
		if err != nil {
			return "", errors.Wrap(err, "invalid fee amount")
		}
	}

	a.log = a.log.WithFields(logrus.Fields{
		"account":  account.Hex(),
		"tokenIn":  tokenIn.Hex(),
		"tokenOut": tokenOut.Hex(),
		"amountIn": amountIn.String(),
	})

	if fee != nil {
		o.transition(a, types.StateFeeTransfer, StatusSendingFee, "", nil)
		tx, err := in.Transfer(ctx, o.cfg.FeeRecipient, fee)
		if err != nil {
			return "", o.classify(ctx, swaperrors.KindFeePaymentFailed, errors.Wrap(err, "failed to send fee"))
		}
		if err := o.await(ctx, a, tx, swaperrors.KindFeePaymentFailed); err != nil {
			return "", err
		}
	}

	o.transition(a, types.StateQuoting, StatusQuoting, "", nil)
	quote, err := o.router.Quote(ctx, amountIn, tokenIn, tokenOut)
	if err != nil {
		return "", o.classify(ctx, swaperrors.KindQuoteFailed, err)
	}
	amountOutMin := router.MinAmountOut(quote.AmountOut, o.cfg.SlippageDivisor)
	a.log.WithFields(logrus.Fields{
		"amountOut":    quote.AmountOut.String(),
		"amountOutMin": amountOutMin.String(),
	}).Info("Quote received")

	o.transition(a, types.StateAllowanceCheck, StatusCheckAllowance, "", nil)
	current, err := in.Allowance(ctx, account, o.cfg.Router)
	if err != nil {
		return "", o.classify(ctx, swaperrors.KindAllowanceReadFailed, err)
	}
	allowance := types.AllowanceState{Owner: account, Spender: o.cfg.Router, Current: current}

	if !allowance.Covers(amountIn) {
		o.transition(a, types.StateApproving, StatusApproving, "", nil)
		tx, err := in.Approve(ctx, o.cfg.Router, amountIn)
		if err != nil {
			return "", o.classify(ctx, swaperrors.KindApprovalFailed, errors.Wrap(err, "failed to send approval"))
		}
		if err := o.await(ctx, a, tx, swaperrors.KindApprovalFailed); err != nil {
			return "", err
		}
	}

	o.transition(a, types.StateSwapping, StatusSwapping, "", nil)
	deadline := router.Deadline(o.now(), o.cfg.DeadlineOffset)
	tx, err := o.router.SwapExactTokensForTokens(ctx, amountIn, amountOutMin, []common.Address{tokenIn, tokenOut}, account, deadline)
	if err != nil {
		return "", o.classify(ctx, swaperrors.KindSwapReverted, errors.Wrap(err, "failed to send swap"))
	}
	if err := o.await(ctx, a, tx, swaperrors.KindSwapReverted); err != nil {
		return "", err
	}

	return tx.Hash, nil
}

// await waits for tx within the confirmation timeout. A reverted tx fails with kind.
func (o *Orchestrator) await(ctx context.Context, a *attempt, tx *types.Transaction, kind swaperrors.Kind) error {
	a.log.WithField("txHash", tx.Hash).Info("Waiting for transaction confirmation")

	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.ConfirmationTimeout)
	defer cancel()

	status, err := o.watcher.WaitTransactionConfirmation(waitCtx, tx)
	switch {
	case err == nil && status == types.TxDone:
		return nil
	case err == nil && status == types.TxFailed:
		return swaperrors.Broadcasted(kind, tx.Hash, errors.Errorf("transaction %s reverted", tx.Hash))
	case ctx.Err() != nil:
		return swaperrors.Broadcasted(swaperrors.KindCanceled, tx.Hash,
			errors.Wrapf(ctx.Err(), "stopped waiting for %s, it may still confirm", tx.Hash))
	case waitCtx.Err() != nil || err == nil:
		return swaperrors.Broadcasted(swaperrors.KindTimedOut, tx.Hash,
			errors.Errorf("no receipt for %s within %s, it may still confirm", tx.Hash, o.cfg.ConfirmationTimeout))
	default:
		return swaperrors.Broadcasted(swaperrors.KindNetworkError, tx.Hash, errors.Wrapf(err, "failed to wait for %s", tx.Hash))
	}
}

// classify tags a step error with kind unless it is already classified or ctx was canceled.
func (o *Orchestrator) classify(ctx context.Context, kind swaperrors.Kind, err error) error {
	if swaperrors.KindOf(err) != "" {
		return err
	}
	if ctx.Err() != nil {
		return swaperrors.New(swaperrors.KindCanceled, errors.Wrap(ctx.Err(), err.Error()))
	}
	return swaperrors.New(kind, err)
}

func (o *Orchestrator) transition(a *attempt, state types.SwapState, status, txHash string, err error) {
	o.stateMutex.Lock()
	o.state = state
	o.stateMutex.Unlock()

	entry := a.log.WithField("state", string(state))
	if txHash != "" {
		entry = entry.WithField("txHash", txHash)
	}
	if err != nil {
		entry.WithError(err).Error(status)
	} else {
		entry.Info(status)
	}

	event := Event{ID: a.id, State: state, Status: status, TxHash: txHash, Err: err}
	for _, observer := range o.observers {
		observer.OnTransition(event)
	}
}
