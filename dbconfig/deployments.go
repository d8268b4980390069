package dbconfig

import (
	"context"
	"database/sql"
	"strings"
	"time"

	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/dbconfig/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// GetDeployment returns the active deployment with the given name.
//
// Parameters:
// - ctx: the context for managing the request.
// - name: the deployment name.
//
// Returns:
// - *models.Deployment: the deployment row.
// - error: ErrDeploymentNotFound if no active deployment has that name.
func (r *DBConfig) GetDeployment(ctx context.Context, name string) (*models.Deployment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidDeploymentName
	}

	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, ErrDatabaseConnect
	}
	defer db.Close()

	var deployment models.Deployment
	var baseSymbol, quoteSymbol, feeAmount sql.NullString
	var slippageDivisor, deadlineSeconds sql.NullInt64

	err = db.QueryRowContext(ctx, `
       SELECT
           id,
           name,
           chain_id,
           base_token,
           quote_token,
           base_symbol,
           quote_symbol,
           router,
           fee_recipient,
           fee_amount,
           slippage_divisor,
           deadline_seconds,
           active,
           created_at,
           updated_at
       FROM swap_deployments
       WHERE name = $1 AND active = $2
    `, name, true).Scan(
		&deployment.ID,
		&deployment.Name,
		&deployment.ChainID,
		&deployment.BaseToken,
		&deployment.QuoteToken,
		&baseSymbol,
		&quoteSymbol,
		&deployment.Router,
		&deployment.FeeRecipient,
		&feeAmount,
		&slippageDivisor,
		&deadlineSeconds,
		&deployment.Active,
		&deployment.CreatedAt,
		&deployment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrDeploymentNotFound
	}

	if err != nil {
		return nil, ErrDatabaseConnect
	}

	if baseSymbol.Valid {
		deployment.BaseSymbol = baseSymbol.String
	}
	if quoteSymbol.Valid {
		deployment.QuoteSymbol = quoteSymbol.String
	}
	if feeAmount.Valid {
		deployment.FeeAmount = feeAmount.String
	}
	if slippageDivisor.Valid {
		deployment.SlippageDivisor = slippageDivisor.Int64
	}
	if deadlineSeconds.Valid {
		deployment.DeadlineSeconds = deadlineSeconds.Int64
	}

	return &deployment, nil
}

// LoadSwapConfig loads a deployment with its chain and newest active RPC.
func (r *DBConfig) LoadSwapConfig(ctx context.Context, name string) (types.SwapConfig, error) {
	deployment, err := r.GetDeployment(ctx, name)
	if err != nil {
		return types.SwapConfig{}, err
	}

	chain, err := r.GetChainByID(ctx, deployment.ChainID)
	if err != nil {
		return types.SwapConfig{}, err
	}

	rpcs, err := r.GetRPCsByChainID(ctx, deployment.ChainID, true)
	if err != nil {
		return types.SwapConfig{}, err
	}

	return BuildSwapConfig(deployment, chain, rpcs)
}

// BuildSwapConfig assembles and validates a SwapConfig from database rows.
// The first RPC is used; unset policy values get their defaults.
func BuildSwapConfig(deployment *models.Deployment, chain *models.Chain, rpcs []models.RPC) (types.SwapConfig, error) {
	if len(rpcs) == 0 {
		return types.SwapConfig{}, errors.Wrapf(ErrNoActiveRPC, "chain %d", chain.ChainID)
	}

	addresses := map[string]string{
		"base token":    deployment.BaseToken,
		"quote token":   deployment.QuoteToken,
		"router":        deployment.Router,
		"fee recipient": deployment.FeeRecipient,
	}
	for field, value := range addresses {
		if !common.IsHexAddress(value) {
			return types.SwapConfig{}, errors.Wrapf(swaperrors.ErrInvalidConfig, "%s %q is not an address", field, value)
		}
	}

	cfg := types.SwapConfig{
		Chain: types.ChainConfig{
			Name:        chain.Name,
			ChainID:     chain.ChainID,
			RpcUrl:      rpcs[0].URL,
			TxType:      chain.TxType,
			WaitNBlocks: chain.WaitNBlocks,
		},
		BaseToken:       common.HexToAddress(deployment.BaseToken),
		QuoteToken:      common.HexToAddress(deployment.QuoteToken),
		Router:          common.HexToAddress(deployment.Router),
		FeeRecipient:    common.HexToAddress(deployment.FeeRecipient),
		FeeAmount:       deployment.FeeAmount,
		SlippageDivisor: deployment.SlippageDivisor,
		DeadlineOffset:  time.Duration(deployment.DeadlineSeconds) * time.Second,
		ExplorerTxURL:   chain.ExplorerTxURL,
		BaseSymbol:      deployment.BaseSymbol,
		QuoteSymbol:     deployment.QuoteSymbol,
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return types.SwapConfig{}, err
	}

	return cfg, nil
}
