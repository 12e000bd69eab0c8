package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runesdex-intents/config"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/catalog"
)

var (
	filterChain  string
	filterSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List all supported tokens",
	Long: `List the tokens that can be swapped through the solver relay.

The built-in catalog is used unless catalog is set to "oneclick", in which case
the token list is fetched from the 1Click API and cached.

Examples:
  runesdex list-tokens
  runesdex list-tokens --chain rune
  runesdex list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by chain namespace or network")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

// tokenView is the JSON shape of a listed token
type tokenView struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name,omitempty"`
	Identifier string `json:"assetId"`
	Network    string `json:"network,omitempty"`
	Decimals   int32  `json:"decimals"`
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := config.Get()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}

	tokens, err := newCatalog(cfg).Tokens(cmd.Context())
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered := catalog.Filter(tokens, filterSymbol, filterChain)

	if jsonOutput {
		views := make([]tokenView, 0, len(filtered))
		for _, t := range filtered {
			views = append(views, tokenView{
				Symbol:     t.Symbol,
				Name:       t.Name,
				Identifier: t.Identifier(),
				Network:    t.Network,
				Decimals:   t.Decimals,
			})
		}
		jsonData, _ := json.MarshalIndent(views, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered)
	}
}

func displayTokens(tokens []asset.Asset) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	byChain := make(map[asset.Chain][]asset.Asset)
	for _, t := range tokens {
		byChain[t.Chain] = append(byChain[t.Chain], t)
	}

	chains := make([]string, 0, len(byChain))
	for chain := range byChain {
		chains = append(chains, string(chain))
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(chain))
		fmt.Println(strings.Repeat("-", 90))

		for _, t := range byChain[asset.Chain(chain)] {
			id := t.ID
			if len(id) > 40 {
				id = id[:37] + "..."
			}

			fmt.Printf("  %-10s  %2d decimals  %-6s %s\n",
				color.YellowString(t.Symbol),
				t.Decimals,
				t.Network,
				color.HiBlackString(id))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d chains\n\n", len(tokens), len(chains))
}
