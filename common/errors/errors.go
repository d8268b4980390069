package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a swap step failed. Callers branch on the kind, never on message text.
type Kind string

const (
	// KindNoProviderDetected means no wallet provider is available to the session.
	KindNoProviderDetected Kind = "NoProviderDetected"
	// KindUserRejected means the account owner declined access or refused to sign.
	KindUserRejected Kind = "UserRejected"
	// KindInvalidAmount means the entered amount is non-numeric, non-positive or too precise for the token.
	KindInvalidAmount Kind = "InvalidAmount"
	// KindFeePaymentFailed means the service fee transfer did not confirm.
	KindFeePaymentFailed Kind = "FeePaymentFailed"
	// KindQuoteFailed means the router could not quote the pair (no route or liquidity).
	KindQuoteFailed Kind = "QuoteFailed"
	// KindAllowanceReadFailed means the router allowance could not be read.
	KindAllowanceReadFailed Kind = "AllowanceReadFailed"
	// KindApprovalFailed means the approval transaction did not confirm.
	KindApprovalFailed Kind = "ApprovalFailed"
	// KindSwapReverted means the swap transaction reverted (slippage exceeded, deadline passed, ...).
	KindSwapReverted Kind = "SwapReverted"
	// KindTimedOut means a confirmation wait exceeded its bound. The transaction may still confirm.
	KindTimedOut Kind = "TimedOut"
	// KindNetworkError means the RPC endpoint was unreachable.
	KindNetworkError Kind = "NetworkError"
	// KindCanceled means the caller stopped the state machine.
	KindCanceled Kind = "Canceled"
)

var (
	ErrNoProviderDetected  = errors.New("no wallet provider detected")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrFeePaymentFailed    = errors.New("fee payment failed")
	ErrQuoteFailed         = errors.New("quote failed")
	ErrAllowanceReadFailed = errors.New("allowance read failed")
	ErrApprovalFailed      = errors.New("approval failed")
	ErrSwapReverted        = errors.New("swap reverted")
	ErrTimedOut            = errors.New("confirmation timed out")
	ErrNetworkError        = errors.New("network error")
	ErrCanceled            = errors.New("swap canceled")

	ErrSwapInProgress = errors.New("another swap is in progress for this wallet")
	ErrInvalidConfig  = errors.New("invalid swap configuration")
)

var sentinels = map[Kind]error{
	KindNoProviderDetected:  ErrNoProviderDetected,
	KindUserRejected:        ErrUserRejected,
	KindInvalidAmount:       ErrInvalidAmount,
	KindFeePaymentFailed:    ErrFeePaymentFailed,
	KindQuoteFailed:         ErrQuoteFailed,
	KindAllowanceReadFailed: ErrAllowanceReadFailed,
	KindApprovalFailed:      ErrApprovalFailed,
	KindSwapReverted:        ErrSwapReverted,
	KindTimedOut:            ErrTimedOut,
	KindNetworkError:        ErrNetworkError,
	KindCanceled:            ErrCanceled,
}

// Error is a classified step failure.
//
// Fields:
// - Kind: the failure classification.
// - Broadcast: true when a transaction for the failed step reached the network (gas may have been spent).
// - TxHash: the hash of that transaction, if any.
// - Err: the underlying cause.
type Error struct {
	Kind      Kind
	Broadcast bool
	TxHash    string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

// New classifies err under kind. An err that is already classified keeps its own kind.
func New(kind Kind, err error) *Error {
	var classified *Error
	if stderrors.As(err, &classified) {
		return classified
	}
	if err == nil {
		err = sentinels[kind]
	}
	return &Error{Kind: kind, Err: err}
}

// Newf classifies a formatted message under kind.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// Broadcasted classifies a failure of a transaction that reached the network.
func Broadcasted(kind Kind, txHash string, err error) *Error {
	e := New(kind, err)
	e.Broadcast = true
	if e.TxHash == "" {
		e.TxHash = txHash
	}
	return e
}

// KindOf returns the classification of err, or "" if err is not classified.
func KindOf(err error) Kind {
	var classified *Error
	if stderrors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// Sentinel returns the comparison sentinel for kind.
func Sentinel(kind Kind) error {
	return sentinels[kind]
}
