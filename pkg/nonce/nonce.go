package nonce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Size is the number of random bytes in a nonce
const Size = 32

// Generator produces single-use intent nonces
type Generator struct {
	source io.Reader
}

// NewGenerator creates a generator reading from source, or crypto/rand when source is nil
func NewGenerator(source io.Reader) *Generator {
	if source == nil {
		source = rand.Reader
	}
	return &Generator{source: source}
}

// Generate returns Size fresh random bytes, base64 encoded
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, Size)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("failed to read nonce bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
