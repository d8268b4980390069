package types

import (
	"context"
	"math/big"
	"time"
)

// ChainConfig holds the configuration for the chain the swap pair lives on.
//
// Fields:
// - Name: the name of the chain.
// - ChainID: the unique identifier for the chain.
// - RpcUrl: the URL for the chain's RPC endpoint.
// - TxType: the type of transactions supported by the chain.
// - WaitNBlocks: the number of blocks to wait for transaction confirmation.
// - PollInterval: how often receipts are polled over HTTP.
type ChainConfig struct {
	Name         string
	ChainID      uint64
	RpcUrl       string
	TxType       uint64
	WaitNBlocks  uint64
	PollInterval time.Duration
}

// GasEstimator provides gas estimation functionality.
type GasEstimator interface {
	// EstimateGas estimates the gas required for a transaction.
	//
	// Parameters:
	// - ctx: the context for managing the request.
	// - from: the sender address of the transaction.
	// - to: the recipient address of the transaction.
	// - value: the amount of Ether to send with the transaction.
	// - data: the input data for the transaction.
	//
	// Returns:
	// - uint64: the estimated gas amount.
	// - error: an error if the gas estimation fails.
	EstimateGas(ctx context.Context, from string, to string, value *big.Int, data []byte) (uint64, error)
}
