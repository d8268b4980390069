package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ClipFinance/swapbox/common/types"
	"github.com/ClipFinance/swapbox/swap"
	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	swapDirection string
	noConfirm     bool
)

var swapCmd = &cobra.Command{
	Use:   "swap [amount]",
	Short: "Swap an amount of one token of the pair for the other",
	Long: `Swap an exact amount of one token of the pair for the other.

Forward swaps sell the base token and first send the service fee.
Reverse swaps sell the quote token and pay no fee. The router is approved for
exactly the swapped amount when the current allowance is lower.

Examples:
  swapbox swap          # swaps 1 base token
  swapbox swap 2.5
  swapbox swap 100 --direction reverse --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().StringVarP(&swapDirection, "direction", "d", "forward", "forward (base to quote) or reverse (quote to base)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) error {
	direction, err := types.ParseSwapDirection(swapDirection)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	a, err := openApp(cmd.Context(), &terminalObserver{spinner: s})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.box.Connect(cmd.Context()); err != nil {
		return err
	}

	a.box.SetDirection(direction)
	if len(args) == 1 {
		a.box.SetAmount(args[0])
	}

	tokenIn, tokenOut := a.cfg.TokensFor(direction)
	fmt.Printf("\n  Wallet: %s\n", color.CyanString(a.box.ShortAddress()))
	fmt.Printf("  Swap:   %s %s -> %s\n", a.box.Amount(), color.YellowString(a.cfg.SymbolOf(tokenIn)), color.YellowString(a.cfg.SymbolOf(tokenOut)))
	if notice := a.box.FeeNotice(); notice != "" {
		fmt.Printf("  %s\n", color.HiBlackString(notice))
	}

	if !noConfirm && !confirm("Proceed with the swap?") {
		color.Yellow("Swap cancelled.")
		return nil
	}

	outcome, err := a.box.Swap(cmd.Context())
	s.Stop()
	if err != nil {
		return err
	}

	if snapshot, ok := a.box.Balances(); ok {
		fmt.Printf("\n  %s %s | %s %s\n\n",
			snapshot.Base, a.cfg.SymbolOf(a.cfg.BaseToken),
			snapshot.Quote, a.cfg.SymbolOf(a.cfg.QuoteToken))
	}
	a.logger.WithField("txHash", outcome.TxHash).Debug("Swap finished")
	return nil
}

func confirm(question string) bool {
	fmt.Printf("\n%s [y/N]: ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// terminalObserver renders swap transitions with a spinner and colored result lines.
type terminalObserver struct {
	spinner *spinner.Spinner
}

func (o *terminalObserver) OnTransition(event swap.Event) {
	switch event.State {
	case types.StateConfirmed:
		o.spinner.Stop()
		color.Green("\n✅ %s", event.Status)
	case types.StateFailed:
		o.spinner.Stop()
		color.Red("\n❌ %s", event.Status)
	default:
		o.spinner.Suffix = " " + event.Status
		o.spinner.Start()
	}
}
