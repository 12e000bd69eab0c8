package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runesdex-intents/config"
	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/display"
	"runesdex-intents/pkg/parser"
	"runesdex-intents/pkg/quote"
	"runesdex-intents/pkg/session"
	"runesdex-intents/pkg/types"
	"runesdex-intents/pkg/units"
	"runesdex-intents/pkg/wallet"
)

var (
	fromChain string
	toChain   string
	quoteID   string
	noConfirm bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens through a signed intent",
	Long: `Request quotes from solvers, sign a token_diff intent for the best quote
and publish it to the solver relay.

The signing key is read from RUNESDEX_PRIVATE_KEY (ed25519:<base58>) or from a
keypair file given by RUNESDEX_KEY_FILE.

Examples:
  runesdex swap 1.5 NEAR to USDC
  runesdex swap 100 USDC to BTC --to-chain rune
  runesdex swap 0.01 BTC@rune to USDC --quote-id <id>
  runesdex swap 1 NEAR to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&fromChain, "from-chain", "", "Source chain or network (optional)")
	swapCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination chain or network (optional)")
	swapCmd.Flags().StringVar(&quoteID, "quote-id", "", "Use this quote instead of the first one")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

// swapInput is a parsed command resolved against the catalog
type swapInput struct {
	req      *types.SwapRequest
	from, to asset.Asset
	amount   string
}

func resolveSwapInput(ctx context.Context, cfg *config.Config, args []string) (*swapInput, error) {
	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	if fromChain != "" {
		req.SourceChain = fromChain
	}
	if toChain != "" {
		req.DestChain = toChain
	}
	if err := parser.ValidateSwapRequest(req); err != nil {
		return nil, err
	}

	from, to, err := resolvePair(ctx, newCatalog(cfg), req)
	if err != nil {
		return nil, err
	}
	amount, err := units.ToBaseUnits(req.Amount, from.Decimals)
	if err != nil {
		return nil, err
	}
	return &swapInput{req: req, from: from, to: to, amount: amount}, nil
}

func runSwap(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in, err := resolveSwapInput(ctx, cfg, args)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var approve wallet.ApproveFunc
	if !noConfirm && !jsonOutput {
		approve = func(ctx context.Context, message []byte, recipient string) error {
			if !confirmSwap() {
				return errors.New("cancelled at prompt")
			}
			return nil
		}
	}
	w, err := newWallet(cfg, approve)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := w.Connect(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
	defer w.Disconnect(context.Background())

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	sess := newSession(ctx, cfg, newRelayClient(cfg), w, session.WithObserver(func(from, to session.Status) {
		if jsonOutput {
			return
		}
		switch to {
		case session.Submitting:
			s.Suffix = " Publishing intent..."
			s.Start()
		case session.Succeeded, session.Failed:
			s.Stop()
		}
	}))
	defer sess.Close()

	if !jsonOutput {
		s.Suffix = " Fetching quotes..."
		s.Start()
	}
	snap, err := fetchQuotes(ctx, cfg, sess, in)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if quoteID != "" {
		if err := sess.Select(quoteID); err != nil {
			printError(err)
			os.Exit(1)
		}
		snap = sess.Snapshot()
	}

	views, err := display.NewQuoteViews(snap.Quotes, in.from, in.to)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !jsonOutput {
		displayQuotes(views, snap.Selected.QuoteID)
		fmt.Printf("  Signer:            %s\n", color.CyanString(w.AccountID()))
		fmt.Printf("  Intents Contract:  %s\n\n", cfg.IntentsContract)
	}

	err = sess.Confirm(ctx)
	final := sess.Snapshot()

	if errors.Is(err, wallet.ErrRejected) {
		fmt.Println("\nSwap cancelled.")
		os.Exit(0)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"status":  final.Status.String(),
			"attempt": final.Attempt,
			"quote":   selectedView(views, snap.Selected.QuoteID),
			"result":  final.Result,
		}
		if err != nil {
			output["error"] = err.Error()
			if kind := apperr.KindOf(err); kind != "" {
				output["errorKind"] = kind
			}
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		if err != nil {
			os.Exit(1)
		}
		return
	}

	if err != nil {
		if final.Result != nil {
			displayPublishResult(final.Result)
		}
		printError(err)
		os.Exit(1)
	}

	displayPublishResult(final.Result)
	if final.Result.IntentHash != "" {
		fmt.Println("You can monitor settlement using:")
		color.Cyan("  runesdex status %s\n", final.Result.IntentHash)
	}
	printSuccess(color.GreenString("Swap intent accepted."))
}

// fetchQuotes sets the session input and waits for the quote round to finish
func fetchQuotes(ctx context.Context, cfg *config.Config, sess *session.Session, in *swapInput) (session.Snapshot, error) {
	if err := sess.SetInput(in.from, in.to, in.amount); err != nil {
		return session.Snapshot{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, quote.QuietWindow+cfg.RequestTimeout+time.Second)
	defer cancel()
	snap, err := sess.Await(waitCtx, func(s session.Snapshot) bool { return s.Status != session.Quoting })
	if err != nil {
		return snap, fmt.Errorf("waiting for quotes: %w", err)
	}
	if snap.Err != nil {
		return snap, snap.Err
	}
	if len(snap.Quotes) == 0 || snap.Selected == nil {
		return snap, fmt.Errorf("no quotes available for %s to %s", in.from.Symbol, in.to.Symbol)
	}
	return snap, nil
}

func selectedView(views []display.QuoteView, id string) *display.QuoteView {
	for i := range views {
		if views[i].QuoteID == id {
			return &views[i]
		}
	}
	return nil
}

func displayQuotes(views []display.QuoteView, selected string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTES")
	fmt.Println(strings.Repeat("=", 60))

	for _, v := range views {
		marker := " "
		if v.QuoteID == selected {
			marker = color.GreenString("*")
		}
		fmt.Printf("\n%s Quote:             %s\n", marker, color.HiBlackString(v.QuoteID))
		fmt.Printf("  Solver:            %s\n", v.Solver)
		fmt.Printf("  From:              %s %s\n", v.AmountIn, color.YellowString(v.SymbolIn))
		fmt.Printf("  To:                %s %s\n", v.AmountOut, color.YellowString(v.SymbolOut))
		fmt.Printf("  Rate:              1 %s = %s %s\n", v.SymbolIn, v.Rate, v.SymbolOut)
		fmt.Printf("  Price Impact:      %s%%\n", v.PriceImpact)
		if v.Fee != "" {
			fmt.Printf("  Fee:               %s %s\n", v.Fee, v.SymbolIn)
		}
		if v.Expires != "" {
			fmt.Printf("  Expires:           %s\n", v.Expires)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayPublishResult(result *types.PublishResult) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    INTENT PUBLISHED")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Relay Status:      %s\n", getColoredStatus(result.Status))
	if result.IntentHash != "" {
		fmt.Printf("  Intent Hash:       %s\n", color.CyanString(result.IntentHash))
	}
	for _, hash := range result.TransactionHashes {
		fmt.Printf("  Transaction:       %s\n", color.HiBlackString(hash))
	}
	if result.Reason != "" {
		fmt.Printf("  Reason:            %s\n", result.Reason)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nSign and publish this intent? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
