package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runesdex-intents/config"
	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/observability"
)

var rootCmd = &cobra.Command{
	Use:   "runesdex",
	Short: "A CLI for intent-based swaps through the NEAR Intents solver relay",
	Long: `runesdex swaps tokens by asking solvers for quotes, signing a token_diff
intent with your ed25519 key and publishing it to the NEAR Intents solver relay.
Runes (rune:) and NEAR ledger tokens (nep141:) are supported.

Examples:
  runesdex swap 1.5 NEAR to USDC
  runesdex quote 100 USDC to BTC
  runesdex list-tokens
  runesdex status <intent-hash> --watch
  runesdex interactive`,
	Version:          "0.1.0",
	PersistentPreRun: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func setup(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	observability.ConfigureLogger(level, os.Stderr)
}

func printError(err error) {
	fmt.Printf("\nError: %v\n", err)
	if hint := errorHint(err); hint != "" {
		color.HiBlack("%s", hint)
	}
	fmt.Println()
}

// errorHint suggests a next step for classified pipeline errors
func errorHint(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindTransport:
		return "The relay could not be reached. Check relay_url and your network connection."
	case apperr.KindQuoteFetch:
		return "No solver could quote this swap. Try another amount or pair."
	case apperr.KindSigningFailed:
		return "The intent was not signed. Check the configured signing key."
	case apperr.KindSubmission:
		return "The relay refused the intent. Request fresh quotes and try again."
	}
	return ""
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
