package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runesdex-intents/config"
	"runesdex-intents/pkg/catalog"
	"runesdex-intents/pkg/display"
	"runesdex-intents/pkg/parser"
	"runesdex-intents/pkg/session"
	"runesdex-intents/pkg/units"
	"runesdex-intents/pkg/wallet"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"repl", "i"},
	Short:   "Quote and swap from a prompt",
	Long: `Start a prompt bound to a single swap session. Typing a swap command
requests fresh quotes; every new command discards the previous quotes.

Commands:
  <amount> <token> to <token>   request quotes
  quotes                        show the current quotes
  select <quote-id>             use another quote
  confirm                       sign and publish the selected quote
  ack                           dismiss a finished swap and re-quote
  reset                         forget the current swap
  state                         print the session state
  quit                          leave`,
	Run: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) {
	cfg := config.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w, err := newWallet(cfg, nil)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer w.Disconnect(context.Background())

	sess := newSession(ctx, cfg, newRelayClient(cfg), w)
	defer sess.Close()

	go watchSession(ctx, sess)

	color.Green("runesdex interactive. Type a swap like \"1.5 NEAR to USDC\" or \"quit\".")
	repl := newPrompt(ctx, cfg, sess, w)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !repl.handle(line) {
			return
		}
	}
}

type prompt struct {
	ctx     context.Context
	catalog catalog.Catalog
	sess    *session.Session
	wallet  wallet.Wallet
	in      *swapInput
}

// newPrompt binds a prompt to sess. The catalog is shared by every line so a
// cached token list survives between commands.
func newPrompt(ctx context.Context, cfg *config.Config, sess *session.Session, w wallet.Wallet) *prompt {
	return &prompt{ctx: ctx, catalog: newCatalog(cfg), sess: sess, wallet: w}
}

// handle runs one prompt line. It returns false when the user wants to leave.
func (p *prompt) handle(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return false
	case "quotes":
		p.showQuotes()
	case "select":
		if len(fields) != 2 {
			color.Red("usage: select <quote-id>")
			return true
		}
		if err := p.sess.Select(fields[1]); err != nil {
			color.Red("Error: %v", err)
			return true
		}
		p.showQuotes()
	case "confirm":
		go p.confirm()
	case "ack":
		if err := p.sess.Acknowledge(); err != nil {
			color.Red("Error: %v", err)
		}
	case "reset":
		p.sess.Reset()
		p.in = nil
	case "state":
		snap := p.sess.Snapshot()
		fmt.Printf("  status: %s\n", snap.Status)
		if snap.Attempt != "" {
			fmt.Printf("  attempt: %s\n", snap.Attempt)
		}
		if snap.Err != nil {
			fmt.Printf("  error: %v\n", snap.Err)
		}
	default:
		p.setInput(line)
	}
	return true
}

func (p *prompt) setInput(line string) {
	req, err := parser.ParseSwapCommand(line)
	if err == nil {
		err = parser.ValidateSwapRequest(req)
	}
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	from, to, err := resolvePair(p.ctx, p.catalog, req)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	amount, err := units.ToBaseUnits(req.Amount, from.Decimals)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	p.in = &swapInput{req: req, from: from, to: to, amount: amount}
	if err := p.sess.SetInput(from, to, amount); err != nil {
		color.Red("Error: %v", err)
	}
}

func (p *prompt) showQuotes() {
	snap := p.sess.Snapshot()
	if p.in == nil || snap.Status == session.Idle || snap.Status == session.Quoting {
		fmt.Println("  no quotes yet")
		return
	}
	if snap.Err != nil {
		color.Red("  quote request failed: %v", snap.Err)
	}
	if len(snap.Quotes) == 0 {
		fmt.Println("  no solver offered a quote")
		return
	}
	views, err := display.NewQuoteViews(snap.Quotes, p.in.from, p.in.to)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	selected := ""
	if snap.Selected != nil {
		selected = snap.Selected.QuoteID
	}
	displayQuotes(views, selected)
}

func (p *prompt) confirm() {
	err := p.sess.Confirm(p.ctx)
	switch {
	case err == nil:
		snap := p.sess.Snapshot()
		if snap.Result != nil {
			displayPublishResult(snap.Result)
		}
		color.Green("Swap intent accepted. Type \"ack\" to quote again.")
	case errors.Is(err, session.ErrWalletNotConnected):
		if id := p.wallet.AccountID(); id != "" {
			fmt.Printf("Wallet connected as %s. Type \"confirm\" again to sign.\n", color.CyanString(id))
			return
		}
		color.Red("Error: %v", err)
	case errors.Is(err, session.ErrStaleSession):
		color.Yellow("Swap abandoned, the session changed while it was running.")
	default:
		color.Red("Error: %v", err)
	}
}

// watchSession prints every status change until ctx ends
func watchSession(ctx context.Context, sess *session.Session) {
	last := sess.Snapshot().Status
	for {
		snap, err := sess.Await(ctx, func(s session.Snapshot) bool { return s.Status != last })
		if err != nil {
			return
		}
		color.HiBlack("  [%s -> %s]", last, snap.Status)
		if snap.Status == session.Quoted {
			fmt.Printf("  %d quote(s) received. Type \"quotes\" to view them.\n", len(snap.Quotes))
		}
		last = snap.Status
	}
}
