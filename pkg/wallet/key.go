package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "ed25519:"

// ApproveFunc is asked before every signature. Returning an error rejects the request.
type ApproveFunc func(ctx context.Context, message []byte, recipient string) error

// KeyWallet signs with a local ed25519 key
type KeyWallet struct {
	mu        sync.Mutex
	key       solana.PrivateKey
	accountID string
	connected bool
	approve   ApproveFunc
}

type KeyOption func(*KeyWallet)

// WithAccountID sets the named account the key belongs to. Without it the
// implicit account id (hex encoded public key) is used.
func WithAccountID(accountID string) KeyOption {
	return func(w *KeyWallet) {
		if accountID != "" {
			w.accountID = accountID
		}
	}
}

func WithApproval(approve ApproveFunc) KeyOption {
	return func(w *KeyWallet) {
		w.approve = approve
	}
}

func NewKeyWallet(key solana.PrivateKey, opts ...KeyOption) *KeyWallet {
	w := &KeyWallet{
		key:       key,
		accountID: hex.EncodeToString(key.PublicKey().Bytes()),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ParseKey decodes a "ed25519:<base58>" secret key. Both 64-byte keypairs
// and 32-byte seeds are accepted; the prefix is optional.
func ParseKey(encoded string) (solana.PrivateKey, error) {
	raw, err := base58.Decode(strings.TrimPrefix(strings.TrimSpace(encoded), keyPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		return solana.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return solana.PrivateKey(ed25519.NewKeyFromSeed(raw)), nil
	default:
		return nil, fmt.Errorf("invalid private key length %d", len(raw))
	}
}

// LoadKeyFile reads a keypair stored as a JSON byte array
func LoadKeyFile(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load key file %s: %w", path, err)
	}
	return key, nil
}

func (w *KeyWallet) AccountID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return ""
	}
	return w.accountID
}

func (w *KeyWallet) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	log.Debug().Str("account", w.accountID).Msg("Wallet connected")
	return nil
}

func (w *KeyWallet) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
	return nil
}

// PublicKey returns the base58 encoded public key
func (w *KeyWallet) PublicKey() string {
	return w.key.PublicKey().String()
}

func (w *KeyWallet) SignMessage(ctx context.Context, message []byte, recipient string) (*Signature, error) {
	w.mu.Lock()
	connected, approve := w.connected, w.approve
	w.mu.Unlock()

	if !connected {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if approve != nil {
		if err := approve(ctx, message, recipient); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	sig, err := w.key.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	return &Signature{
		Signature: sig.String(),
		PublicKey: w.key.PublicKey().String(),
	}, nil
}
