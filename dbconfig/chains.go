package dbconfig

import (
	"context"
	"database/sql"

	"github.com/ClipFinance/swapbox/dbconfig/models"
)

// GetChainByID returns the chain with the given chain id.
func (r *DBConfig) GetChainByID(ctx context.Context, chainID uint64) (*models.Chain, error) {
	if chainID == 0 {
		return nil, ErrInvalidChainID
	}

	db, err := sql.Open("postgres", r.dbConnStr)
	if err != nil {
		return nil, ErrDatabaseConnect
	}
	defer db.Close()

	var chain models.Chain
	var explorerTxURL sql.NullString

	err = db.QueryRowContext(ctx, `
       SELECT 
           id,
           chain_id,
           name,
           tx_type,
           wait_n_blocks,
           explorer_tx_url,
           active,
           created_at,
           updated_at
       FROM chains
       WHERE chain_id = $1
    `, chainID).Scan(
		&chain.ID,
		&chain.ChainID,
		&chain.Name,
		&chain.TxType,
		&chain.WaitNBlocks,
		&explorerTxURL,
		&chain.Active,
		&chain.CreatedAt,
		&chain.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrChainNotFound
	}

	if err != nil {
		return nil, ErrDatabaseConnect
	}

	if explorerTxURL.Valid {
		chain.ExplorerTxURL = explorerTxURL.String
	}

	return &chain, nil
}
