package signer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewSignerFromHex(t *testing.T) {
	s, err := NewSignerFromHex("0x" + testKey)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())

	_, err = NewSignerFromHex("not-a-key")
	assert.Error(t, err)
}

func TestSignTxRecoversSender(t *testing.T) {
	s, err := NewSignerFromHex(testKey)
	require.NoError(t, err)

	chainID := big.NewInt(56)
	tx := ethtypes.NewTransaction(1, common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"), big.NewInt(0), 21000, big.NewInt(1), nil)

	signed, err := s.SignTx(tx, chainID)
	require.NoError(t, err)

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), sender)
}

func TestSignProducesRecoverableSignature(t *testing.T) {
	s, err := NewSignerFromHex(testKey)
	require.NoError(t, err)

	sig, err := s.Sign([]byte("swap"))
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])
}
