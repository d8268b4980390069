package cmd

import (
	"context"
	"testing"

	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapConfigFromSettings(t *testing.T) {
	settings := &config.Config{
		Swap: types.SwapConfig{Router: common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E")},
	}

	cfg, err := swapConfig(context.Background(), settings)
	require.NoError(t, err)
	assert.Equal(t, settings.Swap, cfg)
}

func TestSwapConfigFromDatabaseNeedsDeployment(t *testing.T) {
	settings := &config.Config{DatabaseURL: "postgres://localhost/swapbox", Deployment: " "}

	_, err := swapConfig(context.Background(), settings)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	verbose = false
	assert.Equal(t, logrus.InfoLevel, newLogger("info").GetLevel())
	assert.Equal(t, logrus.WarnLevel, newLogger("loud").GetLevel())

	verbose = true
	defer func() { verbose = false }()
	assert.Equal(t, logrus.DebugLevel, newLogger("error").GetLevel())
}

func TestCommandsAreRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["balances"])
	assert.True(t, names["quote"])
	assert.True(t, names["swap"])
}
