package config

import (
	"strings"
	"time"

	swaperrors "github.com/ClipFinance/swapbox/common/errors"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SWAPBOX_CHAIN_RPC_URL.
const EnvPrefix = "SWAPBOX"

// Config holds the application configuration
type Config struct {
	Swap types.SwapConfig
	// PrivateKey is the hex key of the headless wallet provider.
	PrivateKey string
	// DatabaseURL and Deployment select a deployment row instead of the swap keys below.
	DatabaseURL string
	Deployment  string
	LogLevel    string
}

// Load reads configuration from environment variables and an optional config file.
// An empty configFile searches for .swapbox.yaml in $HOME and the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".swapbox")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain.name", "bsc")
	v.SetDefault("chain.id", 56)
	v.SetDefault("chain.rpc_url", "https://bsc-dataseed.binance.org")
	v.SetDefault("chain.tx_type", 0)
	v.SetDefault("chain.wait_blocks", 1)
	v.SetDefault("chain.poll_interval", time.Second)

	v.SetDefault("tokens.base", "0x55d398326f99059ff775485246999027b3197955")
	v.SetDefault("tokens.base_symbol", "USDT")
	v.SetDefault("tokens.quote", "0xcca556aecf1e8f368628c7543c382303887265ed")
	v.SetDefault("tokens.quote_symbol", "SIKKA")
	v.SetDefault("router", "0x10ED43C718714eb63d5aA57B78B54704E256024E")
	v.SetDefault("fee.recipient", "0xd83af568C4FBeb558D37998b3d18D20aCd20349f")
	v.SetDefault("fee.amount", types.DefaultFeeAmount)

	v.SetDefault("slippage_divisor", types.DefaultSlippageDivisor)
	v.SetDefault("deadline_offset", types.DefaultDeadlineOffset)
	v.SetDefault("confirmation_timeout", types.DefaultConfirmationTimeout)
	v.SetDefault("explorer_tx_url", types.DefaultExplorerTxURL)

	v.SetDefault("log.level", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		PrivateKey:  v.GetString("private_key"),
		DatabaseURL: v.GetString("database.url"),
		Deployment:  v.GetString("deployment"),
		LogLevel:    v.GetString("log.level"),
	}

	// A deployment from the database replaces the swap keys.
	if cfg.DatabaseURL != "" && cfg.Deployment != "" {
		return cfg, nil
	}

	addresses := make(map[string]common.Address)
	for _, key := range []string{"tokens.base", "tokens.quote", "router", "fee.recipient"} {
		value := v.GetString(key)
		if !common.IsHexAddress(value) {
			return nil, errors.Wrapf(swaperrors.ErrInvalidConfig, "%s %q is not an address", key, value)
		}
		addresses[key] = common.HexToAddress(value)
	}

	cfg.Swap = types.SwapConfig{
		Chain: types.ChainConfig{
			Name:         v.GetString("chain.name"),
			ChainID:      v.GetUint64("chain.id"),
			RpcUrl:       v.GetString("chain.rpc_url"),
			TxType:       v.GetUint64("chain.tx_type"),
			WaitNBlocks:  v.GetUint64("chain.wait_blocks"),
			PollInterval: v.GetDuration("chain.poll_interval"),
		},
		BaseToken:           addresses["tokens.base"],
		QuoteToken:          addresses["tokens.quote"],
		Router:              addresses["router"],
		FeeRecipient:        addresses["fee.recipient"],
		FeeAmount:           v.GetString("fee.amount"),
		SlippageDivisor:     v.GetInt64("slippage_divisor"),
		DeadlineOffset:      v.GetDuration("deadline_offset"),
		ConfirmationTimeout: v.GetDuration("confirmation_timeout"),
		ExplorerTxURL:       v.GetString("explorer_tx_url"),
		BaseSymbol:          v.GetString("tokens.base_symbol"),
		QuoteSymbol:         v.GetString("tokens.quote_symbol"),
	}

	if cfg.Swap.Chain.RpcUrl == "" {
		return nil, errors.Wrap(swaperrors.ErrInvalidConfig, "chain.rpc_url is required")
	}
	if err := cfg.Swap.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
