package cmd

import (
	"fmt"
	"time"

	"github.com/ClipFinance/swapbox/common/types"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var quoteDirection string

var quoteCmd = &cobra.Command{
	Use:   "quote <amount>",
	Short: "Show how much the other token an amount buys right now",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().StringVarP(&quoteDirection, "direction", "d", "forward", "forward (base to quote) or reverse (quote to base)")
}

func runQuote(cmd *cobra.Command, args []string) error {
	direction, err := types.ParseSwapDirection(quoteDirection)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.box.SetDirection(direction)
	a.box.SetAmount(args[0])

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching quote..."
	s.Start()
	amountOut, err := a.box.Quote(cmd.Context())
	s.Stop()
	if err != nil {
		return err
	}

	tokenIn, tokenOut := a.cfg.TokensFor(direction)
	fmt.Printf("\n  %s %s -> ~%s %s\n", args[0], color.YellowString(a.cfg.SymbolOf(tokenIn)), amountOut, color.YellowString(a.cfg.SymbolOf(tokenOut)))
	if notice := a.box.FeeNotice(); notice != "" {
		fmt.Printf("  %s\n", color.HiBlackString(notice))
	}
	fmt.Println()
	return nil
}
