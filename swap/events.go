package swap

import (
	"github.com/ClipFinance/swapbox/common/types"
)

const (
	StatusPreparing      = "Preparing swap..."
	StatusSendingFee     = "Sending fee..."
	StatusQuoting        = "Fetching quote..."
	StatusCheckAllowance = "Checking allowance..."
	StatusApproving      = "Approving token..."
	StatusSwapping       = "Swapping..."
	statusConfirmed      = "Swap successful! Tx: %s"
	statusFailed         = "Swap failed: %s"
)

// Event describes one state transition of a swap attempt.
//
// Fields:
// - ID: the correlation id of the attempt.
// - State: the state entered.
// - Status: the human readable status line for the state.
// - TxHash: the transaction the state is about, if any.
// - Err: the classified failure, set only on Failed.
type Event struct {
	ID     string
	State  types.SwapState
	Status string
	TxHash string
	Err    error
}

// Observer receives every transition of every attempt, in order, on the swapping goroutine.
type Observer interface {
	OnTransition(event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event Event)

// OnTransition calls f(event).
func (f ObserverFunc) OnTransition(event Event) {
	f(event)
}
