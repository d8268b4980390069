package evm

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ClipFinance/swapbox/chains/evm/signer"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/connectionmonitor"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// TxTypeLegacy represents the legacy transaction type.
	TxTypeLegacy = 0
	// TxTypeEIP1559 represents the EIP-1559 transaction type.
	TxTypeEIP1559 = 2
	// defaultPollInterval is the receipt polling interval over HTTP.
	defaultPollInterval = time.Second
)

// ContractBackend is what typed contract clients need from the chain.
type ContractBackend interface {
	// CallContract executes a read-only call against the latest block.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// SendTransaction builds, signs with the given capability, and broadcasts a contract call.
	SendTransaction(ctx context.Context, s signer.TxSigner, to common.Address, data []byte) (*types.Transaction, error)
}

// TransactionWatcher provides transaction confirmation functionality.
type TransactionWatcher interface {
	// WaitTransactionConfirmation blocks until the transaction has a final receipt or ctx is done.
	WaitTransactionConfirmation(ctx context.Context, tx *types.Transaction) (types.TransactionStatus, error)
}

// Chain combines all chain functionality used by the swap flow.
type Chain interface {
	ContractBackend
	TransactionWatcher
	types.GasEstimator
	Close()
}

// rpcClient is the subset of *ethclient.Client the chain uses.
type rpcClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *ethtypes.Header) (ethereum.Subscription, error)
	Close()
}

// evm represents the EVM chain implementation.
type evm struct {
	config *types.ChainConfig // Chain configuration.
	logger *logrus.Logger     // Logger for logging events.
	dial   func(ctx context.Context, url string) (rpcClient, error)

	// Protected fields with their own mutexes.
	clientMutex sync.RWMutex // Mutex for client.
	client      rpcClient    // Ethereum client.

	monitorMutex sync.RWMutex                        // Mutex for connection monitor.
	monitor      connectionmonitor.ConnectionMonitor // Connection monitor.
}

// NewEvmChain creates a new EVM chain implementation and starts its connection monitor.
//
// Parameters:
// - ctx: the context bounding the connection monitor.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - Chain: a new EVM chain instance.
// - error: an error if any issue occurs during creation.
func NewEvmChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (Chain, error) {
	chain := newEvmChain(config, logger, nil)

	client, err := chain.dial(ctx, config.RpcUrl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	chain.client = client

	if err := chain.initMonitor(ctx); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to init connection monitor")
	}

	logger.WithFields(logrus.Fields{
		"chain":   config.Name,
		"chainId": config.ChainID,
		"mode":    config.SubscriptionMode().String(),
	}).Info("EVM chain initialized")

	return chain, nil
}

func newEvmChain(config *types.ChainConfig, logger *logrus.Logger, client rpcClient) *evm {
	return &evm{
		config: config,
		logger: logger,
		client: client,
		dial: func(ctx context.Context, url string) (rpcClient, error) {
			client, err := ethclient.DialContext(ctx, url)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// Close should be called when the chain is no longer needed.
// It stops the connection monitor and closes the client.
func (e *evm) Close() {
	e.monitorMutex.Lock()
	if e.monitor != nil {
		e.monitor.Stop()
	}
	e.monitorMutex.Unlock()

	e.clientMutex.Lock()
	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
	e.clientMutex.Unlock()
}

// getClient returns the current client or an error if the chain is closed.
func (e *evm) getClient() (rpcClient, error) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	if e.client == nil {
		return nil, errors.New("client not initialized")
	}
	return e.client, nil
}

func (e *evm) pollInterval() time.Duration {
	if e.config.PollInterval > 0 {
		return e.config.PollInterval
	}
	return defaultPollInterval
}
