package types

// SwapState is a state of the swap state machine.
type SwapState string

const (
	StateIdle SwapState = "IDLE"
	// StateFeeTransfer is entered only for Forward swaps.
	StateFeeTransfer    SwapState = "FEE_TRANSFER"
	StateQuoting        SwapState = "QUOTING"
	StateAllowanceCheck SwapState = "ALLOWANCE_CHECK"
	// StateApproving is entered only when the allowance is below the swap amount.
	StateApproving SwapState = "APPROVING"
	StateSwapping  SwapState = "SWAPPING"
	StateConfirmed SwapState = "CONFIRMED"
	StateFailed    SwapState = "FAILED"
)

// Terminal reports whether no further transition follows s.
func (s SwapState) Terminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// OutcomeStatus tags a TransactionOutcome.
type OutcomeStatus string

const (
	OutcomeConfirmed OutcomeStatus = "CONFIRMED"
	OutcomeFailed    OutcomeStatus = "FAILED"
)
