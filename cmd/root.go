package cmd

import (
	"context"
	"os"

	"github.com/ClipFinance/swapbox/chains/evm"
	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/config"
	"github.com/ClipFinance/swapbox/dbconfig"
	"github.com/ClipFinance/swapbox/swap"
	"github.com/ClipFinance/swapbox/swapbox"
	"github.com/ClipFinance/swapbox/wallet"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "swapbox",
	Short: "Swap the two tokens of a PancakeSwap style pair from the terminal",
	Long: `swapbox swaps between the two tokens of one configured pair through a
Uniswap V2 style router. Swaps from the base token pay a small service fee.

Configuration is read from .swapbox.yaml and SWAPBOX_* environment variables.
The signing key is taken from SWAPBOX_PRIVATE_KEY.

Examples:
  swapbox balances
  swapbox quote 1
  swapbox swap 1
  swapbox swap 250 --direction reverse`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Canceling ctx stops a running swap.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default .swapbox.yaml in $HOME or the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// app is what every command works with.
type app struct {
	cfg    types.SwapConfig
	chain  evm.Chain
	box    *swapbox.Controller
	logger *logrus.Logger
}

func (a *app) Close() {
	a.chain.Close()
}

// openApp loads the configuration, connects to the chain and builds the swap box.
func openApp(ctx context.Context, observers ...swap.Observer) (*app, error) {
	settings, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(settings.LogLevel)

	cfg, err := swapConfig(ctx, settings)
	if err != nil {
		return nil, err
	}

	var provider wallet.Provider
	if settings.PrivateKey != "" {
		keyProvider, err := wallet.NewKeyProviderFromHex(settings.PrivateKey, cfg.Chain.ChainID)
		if err != nil {
			return nil, err
		}
		provider = keyProvider
	}

	chain, err := evm.NewEvmChain(ctx, &cfg.Chain, logger)
	if err != nil {
		return nil, err
	}

	box, err := swapbox.New(cfg, chain, provider, logger, observers...)
	if err != nil {
		chain.Close()
		return nil, err
	}

	return &app{cfg: cfg, chain: chain, box: box, logger: logger}, nil
}

func swapConfig(ctx context.Context, settings *config.Config) (types.SwapConfig, error) {
	if settings.DatabaseURL == "" || settings.Deployment == "" {
		return settings.Swap, nil
	}

	db, err := dbconfig.NewDBConfig(settings.DatabaseURL)
	if err != nil {
		return types.SwapConfig{}, err
	}

	cfg, err := db.LoadSwapConfig(ctx, settings.Deployment)
	if err != nil {
		return types.SwapConfig{}, errors.Wrapf(err, "failed to load deployment %s", settings.Deployment)
	}
	return cfg, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	if parsed, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}
