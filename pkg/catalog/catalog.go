package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"runesdex-intents/pkg/asset"
)

var ErrTokenNotFound = errors.New("token not found")

// Catalog resolves display symbols to assets
type Catalog interface {
	Tokens(ctx context.Context) ([]asset.Asset, error)
	// Lookup finds a token by symbol. chain may be empty, an asset chain
	// namespace ("nep141", "rune") or a network name ("near", "btc").
	Lookup(ctx context.Context, symbol, chain string) (asset.Asset, error)
}

// DefaultTokens is the built-in token list
func DefaultTokens() []asset.Asset {
	return []asset.Asset{
		{ID: "near.near", Chain: asset.ChainNEP141, Symbol: "NEAR", Name: "NEAR", Decimals: 24, Network: "near"},
		{ID: "usdc.near", Chain: asset.ChainNEP141, Symbol: "USDC", Name: "USD Coin", Decimals: 6, Network: "near"},
		{ID: "bitcoin.ordinals", Chain: asset.ChainRune, Symbol: "BTC", Name: "Bitcoin", Decimals: 8, Network: "btc"},
		{ID: "usdt.near", Chain: asset.ChainNEP141, Symbol: "USDT", Name: "Tether USD", Decimals: 6, Network: "near"},
		{ID: "weth.near", Chain: asset.ChainNEP141, Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Network: "near"},
		{ID: "sats.ordinals", Chain: asset.ChainRune, Symbol: "SATS", Name: "Sats", Decimals: 8, Network: "btc"},
	}
}

// Static serves a fixed token list
type Static struct {
	tokens []asset.Asset
}

// NewStatic creates a catalog of tokens, or of DefaultTokens when none are given
func NewStatic(tokens ...asset.Asset) *Static {
	if len(tokens) == 0 {
		tokens = DefaultTokens()
	}
	return &Static{tokens: tokens}
}

func (s *Static) Tokens(ctx context.Context) ([]asset.Asset, error) {
	out := make([]asset.Asset, len(s.tokens))
	copy(out, s.tokens)
	return out, nil
}

func (s *Static) Lookup(ctx context.Context, symbol, chain string) (asset.Asset, error) {
	return find(s.tokens, symbol, chain)
}

// Filter keeps tokens on chain whose symbol contains symbol. Empty filters match everything.
func Filter(tokens []asset.Asset, symbol, chain string) []asset.Asset {
	var out []asset.Asset
	for _, t := range tokens {
		if chain != "" && !onChain(t, chain) {
			continue
		}
		if symbol != "" && !strings.Contains(strings.ToUpper(t.Symbol), strings.ToUpper(symbol)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func find(tokens []asset.Asset, symbol, chain string) (asset.Asset, error) {
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, symbol) && (chain == "" || onChain(t, chain)) {
			return t, nil
		}
	}
	if chain != "" {
		return asset.Asset{}, fmt.Errorf("%w: '%s' on chain '%s'", ErrTokenNotFound, symbol, chain)
	}
	return asset.Asset{}, fmt.Errorf("%w: '%s'", ErrTokenNotFound, symbol)
}

func onChain(t asset.Asset, chain string) bool {
	return strings.EqualFold(string(t.Chain), chain) || strings.EqualFold(t.Network, chain)
}
