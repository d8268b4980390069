package models

import (
	"time"
)

type Chain struct {
	ID            int64
	ChainID       uint64
	Name          string
	TxType        uint64
	WaitNBlocks   uint64
	ExplorerTxURL string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
