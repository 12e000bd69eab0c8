package cmd

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"runesdex-intents/config"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/catalog"
	"runesdex-intents/pkg/intent"
	"runesdex-intents/pkg/nonce"
	"runesdex-intents/pkg/quote"
	"runesdex-intents/pkg/relay"
	"runesdex-intents/pkg/session"
	"runesdex-intents/pkg/signing"
	"runesdex-intents/pkg/submit"
	"runesdex-intents/pkg/types"
	"runesdex-intents/pkg/wallet"
)

func newRelayClient(cfg *config.Config) *relay.Client {
	return relay.NewClient(cfg.RelayURL,
		relay.WithTimeout(cfg.RequestTimeout),
		relay.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
}

func newCatalog(cfg *config.Config) catalog.Catalog {
	if cfg.Catalog == config.CatalogOneClick {
		return catalog.NewOneClick(catalog.NewOneClickSource(cfg.OneClickURL, cfg.JWTToken, nil), cfg.CatalogTTL)
	}
	return catalog.NewStatic()
}

func newWallet(cfg *config.Config, approve wallet.ApproveFunc) (*wallet.KeyWallet, error) {
	if err := cfg.ValidateSigner(); err != nil {
		return nil, err
	}

	var key solana.PrivateKey
	var err error
	if cfg.KeyFile != "" {
		key, err = wallet.LoadKeyFile(cfg.KeyFile)
	} else {
		key, err = wallet.ParseKey(cfg.PrivateKey)
	}
	if err != nil {
		return nil, err
	}

	opts := []wallet.KeyOption{wallet.WithAccountID(cfg.AccountID)}
	if approve != nil {
		opts = append(opts, wallet.WithApproval(approve))
	}
	return wallet.NewKeyWallet(key, opts...), nil
}

func newSession(ctx context.Context, cfg *config.Config, client *relay.Client, w wallet.Wallet, opts ...session.Option) *session.Session {
	return session.New(ctx, session.Deps{
		Quotes:        quote.NewFetcher(client),
		Builder:       intent.NewBuilder(),
		Signer:        signing.NewAdapter(w),
		Submitter:     submit.NewSubmitter(client),
		Wallet:        w,
		Nonces:        nonce.NewGenerator(nil),
		Recipient:     cfg.IntentsContract,
		MinDeadlineMs: cfg.MinDeadlineMs,
	}, opts...)
}

// resolvePair looks up both sides of a parsed swap command
func resolvePair(ctx context.Context, cat catalog.Catalog, req *types.SwapRequest) (asset.Asset, asset.Asset, error) {
	from, err := cat.Lookup(ctx, req.SourceToken, req.SourceChain)
	if err != nil {
		return asset.Asset{}, asset.Asset{}, fmt.Errorf("source token error: %w", err)
	}
	to, err := cat.Lookup(ctx, req.DestToken, req.DestChain)
	if err != nil {
		return asset.Asset{}, asset.Asset{}, fmt.Errorf("destination token error: %w", err)
	}
	if from.Identifier() == to.Identifier() {
		return asset.Asset{}, asset.Asset{}, fmt.Errorf("cannot swap %s for itself", from.Symbol)
	}
	return from, to, nil
}
