package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ClipFinance/swapbox/chains/evm/signer"
	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Provider is the wallet the session talks to. It owns the keys; the session never sees them.
type Provider interface {
	// RequestAccounts asks the owner for account access and returns the authorized accounts.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the chain the provider signs for.
	ChainID(ctx context.Context) (*big.Int, error)

	// SignTransaction asks the owner to sign tx with account. A refusal is returned as an error.
	SignTransaction(ctx context.Context, account common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

// AccountListener is notified with the new active account after a connect changes it.
type AccountListener func(account common.Address)

// Session holds the active account granted by a Provider.
type Session struct {
	provider Provider
	logger   *logrus.Logger

	mu        sync.RWMutex
	connected bool
	account   common.Address
	chainID   *big.Int

	listenersMu sync.RWMutex
	listeners   []AccountListener
}

// NewSession creates a session over provider. A nil provider means no wallet is present.
func NewSession(provider Provider, logger *logrus.Logger) *Session {
	return &Session{
		provider: provider,
		logger:   logger,
	}
}

// Connect requests account access and activates the first authorized account.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - common.Address: the active account.
// - error: NoProviderDetected without a provider, UserRejected if access is refused or no account is authorized.
func (s *Session) Connect(ctx context.Context) (common.Address, error) {
	if s.provider == nil {
		return common.Address{}, swaperrors.New(swaperrors.KindNoProviderDetected, nil)
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return common.Address{}, swaperrors.New(swaperrors.KindUserRejected, errors.Wrap(err, "account access denied"))
	}
	if len(accounts) == 0 {
		return common.Address{}, swaperrors.Newf(swaperrors.KindUserRejected, "no authorized accounts")
	}

	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return common.Address{}, swaperrors.New(swaperrors.KindNetworkError, errors.Wrap(err, "failed to get chain id"))
	}

	account := accounts[0]

	s.mu.Lock()
	changed := !s.connected || s.account != account
	s.connected = true
	s.account = account
	s.chainID = new(big.Int).Set(chainID)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"account": account.Hex(),
		"chainId": chainID.String(),
	}).Info("Wallet connected")

	if changed {
		s.notify(account)
	}

	return account, nil
}

// Account returns the active account.
func (s *Session) Account() (common.Address, error) {
	if s.provider == nil {
		return common.Address{}, swaperrors.New(swaperrors.KindNoProviderDetected, nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return common.Address{}, swaperrors.Newf(swaperrors.KindUserRejected, "wallet not connected")
	}
	return s.account, nil
}

// Signer returns a signing capability bound to the active account and chain.
func (s *Session) Signer() (signer.TxSigner, error) {
	if s.provider == nil {
		return nil, swaperrors.New(swaperrors.KindNoProviderDetected, nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected || s.chainID == nil {
		return nil, swaperrors.Newf(swaperrors.KindUserRejected, "wallet not connected")
	}
	account := s.account
	chainID := new(big.Int).Set(s.chainID)

	return &boundSigner{
		provider: s.provider,
		account:  account,
		chainID:  chainID,
	}, nil
}

// Disconnect forgets the active account.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.connected = false
	s.account = common.Address{}
	s.chainID = nil
	s.mu.Unlock()

	s.logger.Info("Wallet disconnected")
}

// OnAccountChanged registers fn to be called after a connect activates a different account.
func (s *Session) OnAccountChanged(fn AccountListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify(account common.Address) {
	s.listenersMu.RLock()
	listeners := make([]AccountListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(account)
	}
}

// boundSigner signs through the provider for one account.
type boundSigner struct {
	provider Provider
	account  common.Address
	chainID  *big.Int
}

func (b *boundSigner) Address() common.Address {
	return b.account
}

func (b *boundSigner) SignTx(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	signed, err := b.provider.SignTransaction(ctx, b.account, tx, b.chainID)
	if err != nil {
		return nil, swaperrors.New(swaperrors.KindUserRejected, errors.Wrap(err, "transaction signing refused"))
	}
	return signed, nil
}
