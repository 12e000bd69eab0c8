package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runesdex-intents/config"
	"runesdex-intents/pkg/catalog"
	"runesdex-intents/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		RelayURL:        "http://127.0.0.1:0/rpc",
		IntentsContract: "intents.near",
		Catalog:         config.CatalogStatic,
	}
}

func TestResolvePair(t *testing.T) {
	cat := catalog.NewStatic()

	from, to, err := resolvePair(context.Background(), cat, &types.SwapRequest{SourceToken: "USDC", DestToken: "BTC"})
	require.NoError(t, err)
	assert.Equal(t, "nep141:usdc.near", from.Identifier())
	assert.Equal(t, "rune:bitcoin.ordinals", to.Identifier())

	_, _, err = resolvePair(context.Background(), cat, &types.SwapRequest{SourceToken: "DOGE", DestToken: "BTC"})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrTokenNotFound)
	assert.Contains(t, err.Error(), "source token")

	_, _, err = resolvePair(context.Background(), cat, &types.SwapRequest{SourceToken: "NEAR", DestToken: "BTC", DestChain: "nep141"})
	assert.ErrorIs(t, err, catalog.ErrTokenNotFound)
}

func TestResolveSwapInput(t *testing.T) {
	t.Cleanup(func() { fromChain, toChain = "", "" })

	in, err := resolveSwapInput(context.Background(), testConfig(), []string{"1.5", "NEAR", "to", "USDC"})
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000000000", in.amount)
	assert.Equal(t, "NEAR", in.from.Symbol)
	assert.Equal(t, "USDC", in.to.Symbol)

	toChain = "near"
	_, err = resolveSwapInput(context.Background(), testConfig(), []string{"1", "USDC", "to", "BTC"})
	assert.Error(t, err)

	toChain = ""
	_, err = resolveSwapInput(context.Background(), testConfig(), []string{"0.0000001", "USDC", "to", "NEAR"})
	assert.Error(t, err)
}

func TestNewWallet(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	cfg := testConfig()
	_, err = newWallet(cfg, nil)
	assert.Error(t, err)

	cfg.PrivateKey = "ed25519:" + key.String()
	cfg.AccountID = "alice.near"
	w, err := newWallet(cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, w.AccountID())
	require.NoError(t, w.Connect(context.Background()))
	assert.Equal(t, "alice.near", w.AccountID())
	assert.Equal(t, key.PublicKey().String(), w.PublicKey())

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, keyFileJSON(t, key), 0o600))
	cfg.KeyFile = path
	_, err = newWallet(cfg, nil)
	assert.Error(t, err, "both key sources set")

	cfg.PrivateKey = ""
	w, err = newWallet(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), w.PublicKey())
}

func TestNewCatalog(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, &catalog.Static{}, newCatalog(cfg))

	cfg.Catalog = config.CatalogOneClick
	cfg.OneClickURL = "http://127.0.0.1:0"
	assert.IsType(t, &catalog.OneClick{}, newCatalog(cfg))
}

func keyFileJSON(t *testing.T, key solana.PrivateKey) []byte {
	t.Helper()
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)
	return data
}
