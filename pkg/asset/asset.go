package asset

import (
	"fmt"
	"strings"
)

// Chain is the namespace part of an asset identifier
type Chain string

const (
	ChainNEP141 Chain = "nep141"
	ChainNEP245 Chain = "nep245"
	ChainRune   Chain = "rune"
)

// Valid reports whether c is a supported chain namespace
func (c Chain) Valid() bool {
	switch c {
	case ChainNEP141, ChainNEP245, ChainRune:
		return true
	}
	return false
}

// Asset describes a swappable token. Network is the blockchain the token
// originates from ("near", "btc", ...), informational only.
type Asset struct {
	ID       string
	Chain    Chain
	Symbol   string
	Name     string
	Decimals int32
	Network  string
}

// Identifier returns the canonical "<chain>:<id>" string for the asset
func (a Asset) Identifier() string {
	return Identifier(a.Chain, a.ID)
}

// Identifier joins a chain and a chain-local id
func Identifier(chain Chain, id string) string {
	return string(chain) + ":" + id
}

// ParseIdentifier splits "<chain>:<id>" on the first colon.
// The id itself may contain colons (nep245 ids do).
func ParseIdentifier(identifier string) (Chain, string, error) {
	chain, id, ok := strings.Cut(identifier, ":")
	if !ok || chain == "" || id == "" {
		return "", "", fmt.Errorf("malformed asset identifier %q", identifier)
	}
	c := Chain(chain)
	if !c.Valid() {
		return "", "", fmt.Errorf("unsupported chain %q in asset identifier %q", chain, identifier)
	}
	return c, id, nil
}
