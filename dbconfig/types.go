package dbconfig

import "github.com/pkg/errors"

var (
	ErrChainNotFound         = errors.New("chain not found")
	ErrDeploymentNotFound    = errors.New("deployment not found")
	ErrNoActiveRPC           = errors.New("no active rpc for chain")
	ErrInvalidChainID        = errors.New("invalid chain id")
	ErrInvalidDeploymentName = errors.New("invalid deployment name")
	ErrDatabaseConnect       = errors.New("failed to connect to database")
)
