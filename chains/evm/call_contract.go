package evm

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// CallContract executes a read-only contract call against the latest block.
//
// Parameters:
// - ctx: the context for managing the request.
// - to: the contract address.
// - data: the ABI encoded call data.
//
// Returns:
// - []byte: the ABI encoded return data.
// - error: an error if the client is not initialized or the call fails.
func (e *evm) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	client, err := e.getClient()
	if err != nil {
		return nil, err
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call contract %s", to.Hex())
	}

	if len(result) == 0 {
		return nil, errors.Errorf("empty result from contract %s", to.Hex())
	}

	return result, nil
}
