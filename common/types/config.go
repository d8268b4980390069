package types

import (
	"fmt"
	"time"

	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultFeeAmount           = "0.01"
	DefaultSlippageDivisor     = 20
	DefaultDeadlineOffset      = 600 * time.Second
	DefaultConfirmationTimeout = 3 * time.Minute
	DefaultExplorerTxURL       = "https://bscscan.com/tx/%s"
)

// SwapConfig is the immutable deployment configuration handed to the orchestrator at construction.
//
// Fields:
// - Chain: the chain the pair is deployed on.
// - BaseToken: the token sold in Forward swaps.
// - QuoteToken: the token sold in Reverse swaps.
// - Router: the AMM router contract.
// - FeeRecipient: the address receiving the service fee.
// - FeeAmount: the fee in human units of the token sold, charged on Forward swaps.
// - SlippageDivisor: amountOutMin = amountOut - amountOut/SlippageDivisor.
// - DeadlineOffset: added to the submission time to build the swap deadline.
// - ConfirmationTimeout: upper bound of every confirmation wait.
// - ExplorerTxURL: fmt template with one %s for the transaction hash.
// - BaseSymbol, QuoteSymbol: display symbols of the pair, optional.
type SwapConfig struct {
	Chain               ChainConfig
	BaseToken           common.Address
	QuoteToken          common.Address
	Router              common.Address
	FeeRecipient        common.Address
	FeeAmount           string
	SlippageDivisor     int64
	DeadlineOffset      time.Duration
	ConfirmationTimeout time.Duration
	ExplorerTxURL       string
	BaseSymbol          string
	QuoteSymbol         string
}

// Validate checks the configuration for values the swap flow cannot run with.
func (c *SwapConfig) Validate() error {
	zero := common.Address{}
	switch {
	case c.BaseToken == zero:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "base token address is required")
	case c.QuoteToken == zero:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "quote token address is required")
	case c.BaseToken == c.QuoteToken:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "base and quote token must differ")
	case c.Router == zero:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "router address is required")
	case c.FeeRecipient == zero:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "fee recipient address is required")
	case c.SlippageDivisor <= 0:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "slippage divisor must be positive")
	case c.DeadlineOffset <= 0:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "deadline offset must be positive")
	case c.ConfirmationTimeout <= 0:
		return errors.Wrap(swaperrors.ErrInvalidConfig, "confirmation timeout must be positive")
	}

	fee, err := decimal.NewFromString(c.FeeAmount)
	if err != nil || !fee.IsPositive() {
		return errors.Wrapf(swaperrors.ErrInvalidConfig, "fee amount %q must be a positive decimal", c.FeeAmount)
	}

	return nil
}

// ApplyDefaults fills unset policy values with the defaults of the original deployment.
func (c *SwapConfig) ApplyDefaults() {
	if c.FeeAmount == "" {
		c.FeeAmount = DefaultFeeAmount
	}
	if c.SlippageDivisor == 0 {
		c.SlippageDivisor = DefaultSlippageDivisor
	}
	if c.DeadlineOffset == 0 {
		c.DeadlineOffset = DefaultDeadlineOffset
	}
	if c.ConfirmationTimeout == 0 {
		c.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if c.ExplorerTxURL == "" {
		c.ExplorerTxURL = DefaultExplorerTxURL
	}
}

// TokensFor returns (tokenIn, tokenOut) for the direction.
func (c *SwapConfig) TokensFor(d SwapDirection) (common.Address, common.Address) {
	if d == Reverse {
		return c.QuoteToken, c.BaseToken
	}
	return c.BaseToken, c.QuoteToken
}

// SymbolOf returns the display symbol of token, or its address when no symbol is configured.
func (c *SwapConfig) SymbolOf(token common.Address) string {
	switch {
	case token == c.BaseToken && c.BaseSymbol != "":
		return c.BaseSymbol
	case token == c.QuoteToken && c.QuoteSymbol != "":
		return c.QuoteSymbol
	default:
		return token.Hex()
	}
}

// ExplorerURL builds the block explorer link of a transaction.
func (c *SwapConfig) ExplorerURL(txHash string) string {
	return fmt.Sprintf(c.ExplorerTxURL, txHash)
}
