package signing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/types"
	"runesdex-intents/pkg/wallet"
)

const (
	Standard     = "nep413"
	SchemePrefix = "ed25519:"
)

// Adapter builds the signing payload for an intent and hands it to the wallet
type Adapter struct {
	wallet wallet.Wallet
}

func NewAdapter(w wallet.Wallet) *Adapter {
	return &Adapter{wallet: w}
}

// Payload returns json(message) + ":" + recipient + ":" + nonce
func Payload(msg *types.Message, recipient, nonce string) ([]byte, error) {
	body, err := types.MarshalMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize intent message: %w", err)
	}
	payload := make([]byte, 0, len(body)+len(recipient)+len(nonce)+2)
	payload = append(payload, body...)
	payload = append(payload, ':')
	payload = append(payload, recipient...)
	payload = append(payload, ':')
	payload = append(payload, nonce...)
	return payload, nil
}

// Sign asks the wallet to sign msg and returns the envelope for publish_intent.
// It blocks until the wallet answers or ctx is done.
func (a *Adapter) Sign(ctx context.Context, msg *types.Message, recipient, nonce string) (*types.SignedData, error) {
	payload, err := Payload(msg, recipient, nonce)
	if err != nil {
		return nil, apperr.SigningFailed(err)
	}

	log.Debug().Str("signer", msg.SignerID).Str("recipient", recipient).Msg("Requesting intent signature")

	sig, err := a.wallet.SignMessage(ctx, payload, recipient)
	if err != nil {
		return nil, apperr.SigningFailed(err)
	}
	if sig == nil || sig.Signature == "" || sig.PublicKey == "" {
		return nil, apperr.SigningFailed(fmt.Errorf("wallet returned an empty signature"))
	}

	return &types.SignedData{
		Standard:  Standard,
		Message:   msg,
		Nonce:     nonce,
		Recipient: recipient,
		Signature: withScheme(sig.Signature),
		PublicKey: withScheme(sig.PublicKey),
	}, nil
}

func withScheme(v string) string {
	if strings.HasPrefix(v, SchemePrefix) {
		return v
	}
	return SchemePrefix + v
}
