package evm

import (
	"context"
	"math/big"

	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SendTransaction builds a contract call transaction, has it signed by the session's signing
// capability and broadcasts it. The returned transaction is only broadcast, not confirmed.
//
// Parameters:
// - ctx: the context for managing the request.
// - s: the signing capability of the active wallet session.
// - to: the contract to call.
// - data: the ABI encoded call data.
//
// Returns:
// - *types.Transaction: the broadcast transaction details.
// - error: an error if preparing, signing or sending fails. Signing errors are returned unwrapped
// so that a wallet refusal keeps its classification.
func (e *evm) SendTransaction(ctx context.Context, s signer.TxSigner, to common.Address, data []byte) (*types.Transaction, error) {
	client, err := e.getClient()
	if err != nil {
		return nil, err
	}

	from := s.Address()
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nonce")
	}

	tx, err := e.prepareTransaction(ctx, from, nonce, to, big.NewInt(0), data)
	if err != nil {
		return nil, err
	}

	signedTx, err := s.SignTx(ctx, tx)
	if err != nil {
		e.logger.WithError(err).WithField("chain", e.config.Name).Warn("Transaction was not signed")
		return nil, err
	}

	if err = client.SendTransaction(ctx, signedTx); err != nil {
		e.logger.WithError(err).WithField("chain", e.config.Name).Error("Failed to send transaction")
		return nil, errors.Wrap(err, "failed to send transaction")
	}

	e.logger.WithFields(logrus.Fields{
		"chain":  e.config.Name,
		"txHash": signedTx.Hash().Hex(),
		"to":     to.Hex(),
		"nonce":  nonce,
	}).Info("Transaction sent")

	return &types.Transaction{
		Hash:    signedTx.Hash().Hex(),
		From:    from.Hex(),
		To:      to.Hex(),
		Nonce:   nonce,
		ChainID: e.config.ChainID,
	}, nil
}

// prepareTransaction prepares a transaction with the given parameters.
//
// Parameters:
// - ctx: the context for managing the request.
// - from: the sending account, used for gas estimation.
// - nonce: the nonce for the transaction.
// - to: the recipient address of the transaction.
// - value: the amount of Ether to send with the transaction.
// - data: the input data for the transaction.
//
// Returns:
// - *ethtypes.Transaction: the prepared transaction.
// - error: an error if the gas estimation, gas price retrieval, or client initialization fails.
func (e *evm) prepareTransaction(ctx context.Context, from common.Address, nonce uint64, to common.Address, value *big.Int, data []byte) (*ethtypes.Transaction, error) {
	estimatedGas, err := e.EstimateGas(ctx, from.Hex(), to.Hex(), value, data)
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to estimate gas")
		return nil, errors.Wrap(err, "failed to estimate gas")
	}

	gasLimit := estimatedGas * 110 / 100

	client, err := e.getClient()
	if err != nil {
		return nil, err
	}

	if e.config.TxType == TxTypeEIP1559 {
		gasPriceData, err := e.getEIP1559GasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get EIP-1559 gas price")
		}

		return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(e.config.ChainID),
			Nonce:     nonce,
			GasFeeCap: gasPriceData.MaxFeePerGas,
			GasTipCap: gasPriceData.MaxPriorityFeePerGas,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		}), nil
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(150))
	gasPrice = new(big.Int).Div(gasPrice, big.NewInt(100))

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	}), nil
}
