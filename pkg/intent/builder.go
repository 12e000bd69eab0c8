package intent

import (
	"strings"
	"time"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/types"
)

const (
	// DeadlineWindow is added to the current time to form the intent deadline
	DeadlineWindow = 600 * time.Second

	KindTokenDiff = "token_diff"
)

// Builder turns a selected quote into a signable intent message
type Builder struct {
	now func() time.Time
}

type Option func(*Builder)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates a single token_diff intent debiting amount_in of assetIn and
// crediting amount_out of assetOut, valid for DeadlineWindow.
func (b *Builder) Build(signerID string, q types.Quote, assetIn, assetOut asset.Asset) (*types.Message, error) {
	if signerID == "" {
		return nil, apperr.Validation("signer id is required")
	}
	if err := checkAmount("amount_in", q.AmountIn); err != nil {
		return nil, err
	}
	if err := checkAmount("amount_out", q.AmountOut); err != nil {
		return nil, err
	}
	in, out := assetIn.Identifier(), assetOut.Identifier()
	if in == out {
		return nil, apperr.Validation("input and output asset are both %s", in)
	}

	return &types.Message{
		SignerID: signerID,
		Deadline: types.Deadline{Timestamp: b.now().Add(DeadlineWindow).Unix()},
		Intents: []types.Intent{{
			Intent: KindTokenDiff,
			Diff: types.Diff{
				{Asset: in, Amount: "-" + q.AmountIn},
				{Asset: out, Amount: q.AmountOut},
			},
		}},
	}, nil
}

func checkAmount(field, amount string) error {
	if amount == "" {
		return apperr.Validation("quote %s is empty", field)
	}
	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return apperr.Validation("quote %s %q must be unsigned", field, amount)
	}
	return nil
}
