package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"runesdex-intents/pkg/asset"
)

const (
	DefaultOneClickURL = "https://1click.chaindefuser.com"
	DefaultTTL         = 5 * time.Minute

	tokensKey = "tokens"
)

// TokenSource lists the tokens known to the 1Click API
type TokenSource interface {
	GetTokens(ctx context.Context) ([]oneclick.TokenResponse, error)
}

// OneClickSource wraps the 1Click SDK
type OneClickSource struct {
	client   *oneclick.APIClient
	jwtToken string
}

// NewOneClickSource creates a 1Click API client. jwtToken may be empty; the
// token listing does not require authentication.
func NewOneClickSource(baseURL, jwtToken string, httpClient *http.Client) *OneClickSource {
	config := oneclick.NewConfiguration()
	if baseURL != "" {
		config.Servers = oneclick.ServerConfigurations{{URL: baseURL}}
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &OneClickSource{
		client:   oneclick.NewAPIClient(config),
		jwtToken: jwtToken,
	}
}

// GetTokens retrieves all supported tokens
func (s *OneClickSource) GetTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	if s.jwtToken != "" {
		ctx = context.WithValue(ctx, oneclick.ContextAccessToken, s.jwtToken)
	}

	resp, httpResp, err := s.client.OneClickAPI.GetTokens(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}
	return resp, nil
}

// OneClick is a catalog backed by the 1Click token list. The list is cached
// for ttl and concurrent refreshes share one request.
type OneClick struct {
	source TokenSource
	cache  *ttlcache.Cache[string, []asset.Asset]
	group  singleflight.Group
}

func NewOneClick(source TokenSource, ttl time.Duration) *OneClick {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &OneClick{
		source: source,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, []asset.Asset](ttl),
			ttlcache.WithDisableTouchOnHit[string, []asset.Asset](),
		),
	}
}

func (c *OneClick) Tokens(ctx context.Context) ([]asset.Asset, error) {
	if item := c.cache.Get(tokensKey); item != nil {
		return item.Value(), nil
	}

	v, err, shared := c.group.Do(tokensKey, func() (interface{}, error) {
		raw, err := c.source.GetTokens(ctx)
		if err != nil {
			return nil, err
		}
		tokens := convertTokens(raw)
		c.cache.Set(tokensKey, tokens, ttlcache.DefaultTTL)
		log.Debug().Int("tokens", len(tokens)).Msg("Refreshed 1Click token list")
		return tokens, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug().Msg("Joined in-flight token list request")
	}
	return v.([]asset.Asset), nil
}

func (c *OneClick) Lookup(ctx context.Context, symbol, chain string) (asset.Asset, error) {
	tokens, err := c.Tokens(ctx)
	if err != nil {
		return asset.Asset{}, err
	}
	return find(tokens, symbol, chain)
}

// convertTokens keeps tokens whose asset id uses a supported chain namespace
func convertTokens(raw []oneclick.TokenResponse) []asset.Asset {
	tokens := make([]asset.Asset, 0, len(raw))
	for _, t := range raw {
		chain, id, err := asset.ParseIdentifier(t.GetAssetId())
		if err != nil {
			log.Debug().Str("assetId", t.GetAssetId()).Msg("Skipping token with unsupported asset id")
			continue
		}
		tokens = append(tokens, asset.Asset{
			ID:       id,
			Chain:    chain,
			Symbol:   t.GetSymbol(),
			Name:     t.GetSymbol(),
			Decimals: int32(t.GetDecimals()),
			Network:  t.GetBlockchain(),
		})
	}
	return tokens
}
