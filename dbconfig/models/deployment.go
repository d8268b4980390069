package models

import "time"

// Deployment is one swap pair deployment row.
type Deployment struct {
	ID              int64
	Name            string
	ChainID         uint64
	BaseToken       string
	QuoteToken      string
	BaseSymbol      string
	QuoteSymbol     string
	Router          string
	FeeRecipient    string
	FeeAmount       string
	SlippageDivisor int64
	DeadlineSeconds int64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
