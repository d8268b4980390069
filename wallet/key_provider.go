package wallet

import (
	"context"
	"math/big"

	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// KeyProvider is a headless Provider backed by an operator supplied key.
// It authorizes its single account without prompting.
type KeyProvider struct {
	signer  signer.Signer
	chainID *big.Int
}

// NewKeyProvider creates a provider signing with s for chainID.
func NewKeyProvider(s signer.Signer, chainID uint64) *KeyProvider {
	return &KeyProvider{
		signer:  s,
		chainID: new(big.Int).SetUint64(chainID),
	}
}

// NewKeyProviderFromHex creates a provider from a hex encoded private key.
func NewKeyProviderFromHex(hexKey string, chainID uint64) (*KeyProvider, error) {
	s, err := signer.NewSignerFromHex(hexKey)
	if err != nil {
		return nil, err
	}
	return NewKeyProvider(s, chainID), nil
}

func (p *KeyProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.signer.Address()}, nil
}

func (p *KeyProvider) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(p.chainID), nil
}

func (p *KeyProvider) SignTransaction(_ context.Context, account common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	if account != p.signer.Address() {
		return nil, errors.Errorf("account %s is not managed by this provider", account.Hex())
	}
	if chainID.Cmp(p.chainID) != 0 {
		return nil, errors.Errorf("chain id %s does not match provider chain id %s", chainID, p.chainID)
	}
	return p.signer.SignTx(tx, chainID)
}
