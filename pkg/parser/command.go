package parser

import (
	"fmt"
	"regexp"
	"strings"

	"runesdex-intents/pkg/types"
)

// <amount> <token>[@chain] TO <token>[@chain]
var swapPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)\s+([A-Z0-9]+)(?:@([A-Z0-9]+))?\s+(?:TO|FOR)\s+([A-Z0-9]+)(?:@([A-Z0-9]+))?$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 NEAR to USDC"
//   - "1.5 usdc for btc"
//   - "100 USDT@nep141 to SATS@rune"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.Join(strings.Fields(strings.ToUpper(command)), " ")
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 NEAR to USDC')")
	}

	return &types.SwapRequest{
		Amount:      matches[1],
		SourceToken: NormalizeTokenSymbol(matches[2]),
		SourceChain: strings.ToLower(matches[3]),
		DestToken:   NormalizeTokenSymbol(matches[4]),
		DestChain:   strings.ToLower(matches[5]),
	}, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if req.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if req.SourceToken == req.DestToken && req.SourceChain == req.DestChain {
		return fmt.Errorf("source and destination token are both %s", req.SourceToken)
	}
	return nil
}

var aliases = map[string]string{
	"WNEAR":   "NEAR",
	"ETH":     "WETH",
	"BITCOIN": "BTC",
	"SAT":     "SATS",
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}
