package swap

import "time"

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock the swap deadline is computed from.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithBalanceRefresher sets the refresher triggered after a confirmed swap.
func WithBalanceRefresher(refresher BalanceRefresher) Option {
	return func(o *Orchestrator) {
		o.refresher = refresher
	}
}

// WithObserver adds a transition observer.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, observer)
	}
}
