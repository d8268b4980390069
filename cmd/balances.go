package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show the wallet balances of both tokens",
	Args:  cobra.NoArgs,
	RunE:  runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Connecting wallet..."
	s.Start()
	account, err := a.box.Connect(cmd.Context())
	s.Stop()
	if err != nil {
		return err
	}

	snapshot, ok := a.box.Balances()
	if !ok {
		return errors.Errorf("balances of %s could not be loaded", account.Hex())
	}

	fmt.Printf("\n  Wallet: %s\n", color.CyanString(a.box.ShortAddress()))
	fmt.Printf("  %-8s %s\n", color.YellowString(a.cfg.SymbolOf(a.cfg.BaseToken)), snapshot.Base)
	fmt.Printf("  %-8s %s\n\n", color.YellowString(a.cfg.SymbolOf(a.cfg.QuoteToken)), snapshot.Quote)
	return nil
}
