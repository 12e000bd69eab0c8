package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"runesdex-intents/config"
	"runesdex-intents/pkg/display"
	"runesdex-intents/pkg/quote"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Show solver quotes without swapping",
	Long: `Ask the solver relay for quotes on a swap. Nothing is signed or published.

Examples:
  runesdex quote 1.5 NEAR to USDC
  runesdex quote 0.01 BTC to USDC --from-chain rune`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&fromChain, "from-chain", "", "Source chain or network (optional)")
	quoteCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination chain or network (optional)")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := config.Get()
	ctx := cmd.Context()

	in, err := resolveSwapInput(ctx, cfg, args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quotes..."
		s.Start()
	}

	fetcher := quote.NewFetcher(newRelayClient(cfg))
	quotes, err := fetcher.Fetch(ctx, quote.Request{
		AssetIn:       in.from.Identifier(),
		AssetOut:      in.to.Identifier(),
		AmountIn:      in.amount,
		MinDeadlineMs: cfg.MinDeadlineMs,
	})
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	views, err := display.NewQuoteViews(quotes, in.from, in.to)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(views, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	if len(views) == 0 {
		fmt.Println("\nNo solver offered a quote for this swap.")
		return
	}
	displayQuotes(views, views[0].QuoteID)
}
