package types

import (
	"math/big"
	"strings"
	"time"

	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// SwapDirection selects which token of the pair is sold.
type SwapDirection int

const (
	// Forward sells the base token for the quote token. The service fee applies.
	Forward SwapDirection = iota
	// Reverse sells the quote token for the base token. No fee.
	Reverse
)

// String returns the direction name.
func (d SwapDirection) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// Toggle returns the opposite direction.
func (d SwapDirection) Toggle() SwapDirection {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// ChargesFee reports whether swaps in this direction pay the service fee.
func (d SwapDirection) ChargesFee() bool {
	return d == Forward
}

// ParseSwapDirection converts a name to a SwapDirection.
func ParseSwapDirection(s string) (SwapDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "base-to-quote", "":
		return Forward, nil
	case "reverse", "quote-to-base":
		return Reverse, nil
	default:
		return Forward, errors.Errorf("unknown swap direction %q", s)
	}
}

// TokenDescriptor identifies a token of the pair. Decimals are fetched once per session.
type TokenDescriptor struct {
	Address  common.Address
	Decimals uint8
}

// SwapRequest is one user swap action. It is consumed once and never persisted.
type SwapRequest struct {
	Direction     SwapDirection
	HumanAmountIn string
	WalletAddress common.Address
}

// Quote is a live router quote, valid only at the instant it was fetched.
type Quote struct {
	AmountIn  *big.Int
	AmountOut *big.Int
}

// AllowanceState is the allowance read immediately before a swap decision.
type AllowanceState struct {
	Owner   common.Address
	Spender common.Address
	Current *big.Int
}

// Covers reports whether the allowance is enough to spend amount.
func (a AllowanceState) Covers(amount *big.Int) bool {
	return a.Current != nil && a.Current.Cmp(amount) >= 0
}

// TransactionOutcome is the terminal result of a swap attempt.
//
// Fields:
// - Status: Confirmed or Failed.
// - TxHash: the swap hash when confirmed, or the hash of the failing step's transaction if one was broadcast.
// - Reason: the failure classification, empty when confirmed.
// - Err: the underlying classified error, nil when confirmed.
type TransactionOutcome struct {
	Status OutcomeStatus
	TxHash string
	Reason swaperrors.Kind
	Err    error
}

// Confirmed builds a confirmed outcome.
func Confirmed(txHash string) *TransactionOutcome {
	return &TransactionOutcome{Status: OutcomeConfirmed, TxHash: txHash}
}

// Failed builds a failed outcome from a classified error.
func Failed(err *swaperrors.Error) *TransactionOutcome {
	return &TransactionOutcome{
		Status: OutcomeFailed,
		TxHash: err.TxHash,
		Reason: err.Kind,
		Err:    err,
	}
}

// IsConfirmed reports whether the outcome is Confirmed.
func (o *TransactionOutcome) IsConfirmed() bool {
	return o != nil && o.Status == OutcomeConfirmed
}

// BalancesSnapshot is the displayed balances of both tokens of the pair, in human decimals.
// It is always replaced as a whole.
type BalancesSnapshot struct {
	Account    common.Address
	Base       string
	Quote      string
	Generation uint64
	UpdatedAt  time.Time
}
