package evm

import (
	"context"
	"sync"
	"time"

	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// subscriptionHandler manages block header subscriptions
type subscriptionHandler struct {
	subscription ethereum.Subscription
	headerChan   chan *ethtypes.Header
	sync.RWMutex
}

// close safely unsubscribes. The header channel is left to the garbage collector
// because the client may still hold a reference to it.
func (h *subscriptionHandler) close() {
	h.Lock()
	defer h.Unlock()
	if h.subscription != nil {
		h.subscription.Unsubscribe()
		h.subscription = nil
	}
}

// WaitTransactionConfirmation waits for the confirmation of a transaction.
// It never replaces or cancels the transaction: when ctx is done the transaction is abandoned
// and TxPending is returned together with ctx.Err().
//
// Parameters:
// - ctx: the context bounding the wait.
// - tx: the transaction to wait for confirmation.
//
// Returns:
// - types.TransactionStatus: TxDone on a successful receipt, TxFailed on a reverted one, TxPending otherwise.
// - error: an error if the client is not initialized, if ctx is done, or if the RPC fails.
func (e *evm) WaitTransactionConfirmation(ctx context.Context, tx *types.Transaction) (types.TransactionStatus, error) {
	if e.config.SubscriptionMode() == types.WebSocketMode {
		return e.waitTransactionConfirmationWS(ctx, tx)
	}
	return e.waitTransactionConfirmationHTTP(ctx, tx)
}

// waitTransactionConfirmationWS waits for transaction confirmation using WebSocket subscription
func (e *evm) waitTransactionConfirmationWS(ctx context.Context, tx *types.Transaction) (types.TransactionStatus, error) {
	client, err := e.getClient()
	if err != nil {
		return types.TxPending, err
	}

	handler := &subscriptionHandler{
		headerChan: make(chan *ethtypes.Header),
	}
	defer handler.close()

	sub, err := client.SubscribeNewHead(ctx, handler.headerChan)
	if err != nil {
		return types.TxPending, errors.Wrap(err, "failed to subscribe to new headers")
	}

	handler.Lock()
	handler.subscription = sub
	handler.Unlock()

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", tx.Hash).Warn("WaitTransactionConfirmation: context done")
			return types.TxPending, ctx.Err()

		case err := <-sub.Err():
			return types.TxPending, errors.Wrap(err, "subscription error")

		case header := <-handler.headerChan:
			if header == nil {
				continue
			}

			status, done, err := e.checkReceipt(ctx, client, tx, header.Number.Uint64())
			if err != nil || done {
				return status, err
			}
		}
	}
}

// waitTransactionConfirmationHTTP waits for transaction confirmation using HTTP polling
func (e *evm) waitTransactionConfirmationHTTP(ctx context.Context, tx *types.Transaction) (types.TransactionStatus, error) {
	ticker := time.NewTicker(e.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.WithField("txHash", tx.Hash).Warn("WaitTransactionConfirmation: context done")
			return types.TxPending, ctx.Err()

		case <-ticker.C:
			client, err := e.getClient()
			if err != nil {
				return types.TxPending, err
			}

			currentBlock, err := client.BlockNumber(ctx)
			if err != nil {
				return types.TxPending, errors.Wrap(err, "failed to get current block number")
			}

			status, done, err := e.checkReceipt(ctx, client, tx, currentBlock)
			if err != nil || done {
				return status, err
			}
		}
	}
}

// checkReceipt looks up the receipt of tx and decides whether it is final at currentBlock.
func (e *evm) checkReceipt(ctx context.Context, client rpcClient, tx *types.Transaction, currentBlock uint64) (types.TransactionStatus, bool, error) {
	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(tx.Hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return types.TxPending, false, nil
		}
		return types.TxPending, false, errors.Wrap(err, "failed to get transaction receipt")
	}

	// Wait for required block confirmations
	if currentBlock < receipt.BlockNumber.Uint64()+e.config.WaitNBlocks {
		return types.TxPending, false, nil
	}

	fields := logrus.Fields{
		"chain":   e.config.Name,
		"txHash":  tx.Hash,
		"block":   receipt.BlockNumber.Uint64(),
		"gasUsed": receipt.GasUsed,
	}

	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		e.logger.WithFields(fields).Info("Transaction confirmed")
		return types.TxDone, true, nil
	}

	e.logger.WithFields(fields).Warn("Transaction reverted")
	return types.TxFailed, true, nil
}
