package balance

import (
	"context"
	"sync"
	"time"

	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TokenReader reads the human balance of one token.
type TokenReader interface {
	Address() common.Address
	HumanBalanceOf(ctx context.Context, owner common.Address) (string, error)
}

// Reader keeps the last good balances snapshot of the pair.
//
// Concurrent refreshes are ordered by start: a refresh only publishes if no refresh
// started after it has already published.
type Reader struct {
	base   TokenReader
	quote  TokenReader
	logger *logrus.Logger
	now    func() time.Time

	mu          sync.RWMutex
	started     uint64
	snapshot    types.BalancesSnapshot
	hasSnapshot bool
}

// NewReader creates a balance reader for the pair.
func NewReader(base, quote TokenReader, logger *logrus.Logger) *Reader {
	return &Reader{
		base:   base,
		quote:  quote,
		logger: logger,
		now:    time.Now,
	}
}

// Refresh reads both balances of account in parallel and replaces the snapshot.
// On failure the previous snapshot is kept.
//
// Parameters:
// - ctx: the context for managing the request.
// - account: the wallet whose balances are read.
//
// Returns:
// - types.BalancesSnapshot: the snapshot read by this call.
// - error: an error if either read fails.
func (r *Reader) Refresh(ctx context.Context, account common.Address) (types.BalancesSnapshot, error) {
	r.mu.Lock()
	r.started++
	generation := r.started
	r.mu.Unlock()

	var base, quote string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = r.base.HumanBalanceOf(gctx, account)
		return errors.Wrapf(err, "failed to read balance of %s", r.base.Address().Hex())
	})
	g.Go(func() error {
		var err error
		quote, err = r.quote.HumanBalanceOf(gctx, account)
		return errors.Wrapf(err, "failed to read balance of %s", r.quote.Address().Hex())
	})

	if err := g.Wait(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"account": account.Hex(),
			"error":   err,
		}).Warn("Balance refresh failed, keeping previous snapshot")
		return types.BalancesSnapshot{}, err
	}

	snapshot := types.BalancesSnapshot{
		Account:    account,
		Base:       base,
		Quote:      quote,
		Generation: generation,
		UpdatedAt:  r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hasSnapshot && r.snapshot.Generation > generation {
		r.logger.WithFields(logrus.Fields{
			"account":    account.Hex(),
			"generation": generation,
			"current":    r.snapshot.Generation,
		}).Debug("Dropping stale balance refresh")
		return snapshot, nil
	}

	r.snapshot = snapshot
	r.hasSnapshot = true

	r.logger.WithFields(logrus.Fields{
		"account": account.Hex(),
		"base":    base,
		"quote":   quote,
	}).Debug("Balances refreshed")

	return snapshot, nil
}

// Snapshot returns the last published snapshot, if any.
func (r *Reader) Snapshot() (types.BalancesSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.hasSnapshot
}
