package intent_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/intent"
	"runesdex-intents/pkg/types"
)

var (
	usdc = asset.Asset{ID: "usdc.near", Chain: asset.ChainNEP141, Symbol: "USDC", Decimals: 6}
	btc  = asset.Asset{ID: "bitcoin.ordinals", Chain: asset.ChainRune, Symbol: "BTC", Decimals: 8}
)

func TestBuilder_Build(t *testing.T) {
	now := time.Unix(1700000000, 0)
	b := intent.NewBuilder(intent.WithClock(func() time.Time { return now }))

	msg, err := b.Build("alice.near", types.Quote{AmountIn: "1000000", AmountOut: "1500"}, usdc, btc)

	require.NoError(t, err)
	assert.Equal(t, "alice.near", msg.SignerID)
	assert.Equal(t, int64(1700000600), msg.Deadline.Timestamp)
	require.Len(t, msg.Intents, 1)
	assert.Equal(t, intent.KindTokenDiff, msg.Intents[0].Intent)

	diff := msg.Intents[0].Diff
	require.Len(t, diff, 2)
	assert.Equal(t, types.DiffEntry{Asset: "nep141:usdc.near", Amount: "-1000000"}, diff[0])
	assert.Equal(t, types.DiffEntry{Asset: "rune:bitcoin.ordinals", Amount: "1500"}, diff[1])
}

func TestBuilder_DeadlineTracksClock(t *testing.T) {
	b := intent.NewBuilder()

	before := time.Now().Unix()
	msg, err := b.Build("alice.near", types.Quote{AmountIn: "1", AmountOut: "1"}, usdc, btc)
	after := time.Now().Unix()

	require.NoError(t, err)
	assert.GreaterOrEqual(t, msg.Deadline.Timestamp, before+600)
	assert.LessOrEqual(t, msg.Deadline.Timestamp, after+600)
}

func TestBuilder_Rejects(t *testing.T) {
	b := intent.NewBuilder()

	tests := []struct {
		name   string
		signer string
		quote  types.Quote
		in     asset.Asset
	}{
		{"empty signer", "", types.Quote{AmountIn: "1", AmountOut: "1"}, usdc},
		{"empty amount in", "alice.near", types.Quote{AmountOut: "1"}, usdc},
		{"empty amount out", "alice.near", types.Quote{AmountIn: "1"}, usdc},
		{"signed amount in", "alice.near", types.Quote{AmountIn: "-1", AmountOut: "1"}, usdc},
		{"same asset", "alice.near", types.Quote{AmountIn: "1", AmountOut: "1"}, btc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := b.Build(tt.signer, tt.quote, tt.in, btc)
			assert.Nil(t, msg)
			assert.True(t, errors.Is(err, apperr.ErrValidation))
		})
	}
}
