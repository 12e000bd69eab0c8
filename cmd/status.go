package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runesdex-intents/config"
	"runesdex-intents/pkg/relay"
	"runesdex-intents/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <intent-hash>",
	Short: "Check the settlement status of a published intent",
	Long: `Ask the solver relay how far a published intent has progressed.

Examples:
  runesdex status 5Hx2...9aQ
  runesdex status 5Hx2...9aQ --watch
  runesdex status 5Hx2...9aQ --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Poll until the intent settles or fails")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	intentHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	client := newRelayClient(config.Get())

	if watchStatus {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		watchIntentStatus(ctx, client, intentHash)
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking intent status..."
		s.Start()
	}
	status, err := fetchIntentStatus(cmd.Context(), client, intentHash)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status)
	}
}

func fetchIntentStatus(ctx context.Context, client *relay.Client, intentHash string) (*types.IntentStatus, error) {
	res, err := client.GetStatus(ctx, intentHash)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, res.Err()
	}
	status, _ := res.Value()
	if status.IntentHash == "" {
		status.IntentHash = intentHash
	}
	return &status, nil
}

// watchIntentStatus polls until the intent reaches a final status or ctx ends
func watchIntentStatus(ctx context.Context, client *relay.Client, intentHash string) {
	fmt.Printf("\nWatching intent %s\n", color.CyanString(intentHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		status, err := fetchIntentStatus(ctx, client, intentHash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayStatus(status)
			if status.IsFinal() {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func displayStatus(status *types.IntentStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       INTENT STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Intent Hash:     %s\n", color.CyanString(status.IntentHash))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status.Status))
	if status.Data != nil && status.Data.Hash != "" {
		fmt.Printf("  Settlement Tx:   %s\n", color.HiBlackString(status.Data.Hash))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "OK", types.IntentSettled:
		return color.GreenString(status)
	case types.IntentPending, types.IntentTxBroadcasted:
		return color.YellowString(status)
	case types.IntentNotFoundOrBad, "FAILED":
		return color.RedString(status)
	default:
		return status
	}
}
