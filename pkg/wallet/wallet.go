package wallet

import (
	"context"
	"errors"
)

var (
	ErrRejected     = errors.New("signature request rejected")
	ErrNotConnected = errors.New("wallet not connected")
)

// Signature is a wallet's answer to a message signing request.
// Both fields are base58 encoded, without a scheme prefix unless the wallet adds one.
type Signature struct {
	Signature string
	PublicKey string
}

// Wallet is an external capability able to sign arbitrary messages for a recipient
type Wallet interface {
	// AccountID returns the connected account, or "" when no identity is connected
	AccountID() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	// SignMessage blocks until the user approves or rejects, or ctx is done
	SignMessage(ctx context.Context, message []byte, recipient string) (*Signature, error)
}
