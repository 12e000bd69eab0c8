package quote

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/debounce"
	"runesdex-intents/pkg/relay"
	"runesdex-intents/pkg/types"
)

// QuietWindow is how long input must stay unchanged before a quote request is sent
const QuietWindow = 500 * time.Millisecond

// Relay is the subset of the relay client used for quoting
type Relay interface {
	Quote(ctx context.Context, req types.QuoteRequest) (relay.Result[types.QuoteResponse], error)
}

// Request describes a quote for an exact input amount
type Request struct {
	AssetIn       string
	AssetOut      string
	AmountIn      string
	MinDeadlineMs int64
}

// Result is delivered to Schedule callbacks
type Result struct {
	Generation uint64
	Quotes     []types.Quote
	Err        error
}

// Fetcher obtains quotes from the relay and suppresses stale responses
type Fetcher struct {
	relay    Relay
	debounce *debounce.Debouncer
}

type Option func(*fetcherOptions)

type fetcherOptions struct {
	quietWindow time.Duration
}

// WithQuietWindow overrides QuietWindow
func WithQuietWindow(d time.Duration) Option {
	return func(o *fetcherOptions) {
		o.quietWindow = d
	}
}

func NewFetcher(r Relay, opts ...Option) *Fetcher {
	o := fetcherOptions{quietWindow: QuietWindow}
	for _, opt := range opts {
		opt(&o)
	}
	return &Fetcher{
		relay:    r,
		debounce: debounce.New(o.quietWindow),
	}
}

// Fetch requests quotes immediately. Quotes are returned in relay order.
// On any failure the returned slice is empty, never nil.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]types.Quote, error) {
	if err := req.Validate(); err != nil {
		return []types.Quote{}, err
	}

	res, err := f.relay.Quote(ctx, types.QuoteRequest{
		AssetIn:       req.AssetIn,
		AssetOut:      req.AssetOut,
		ExactAmountIn: req.AmountIn,
		MinDeadlineMs: req.MinDeadlineMs,
	})
	if err != nil {
		return []types.Quote{}, apperr.QuoteFetch("relay unreachable", err)
	}
	if rpcErr := res.Err(); rpcErr != nil {
		return []types.Quote{}, apperr.QuoteFetch(rpcErr.Message, nil)
	}

	resp, _ := res.Value()
	if resp.Quotes == nil {
		return []types.Quote{}, nil
	}
	return resp.Quotes, nil
}

// Schedule fetches after the quiet window, superseding any earlier scheduled
// fetch. deliver runs only if the request's generation is still current when
// the response arrives. The returned generation identifies this request.
func (f *Fetcher) Schedule(ctx context.Context, req Request, deliver func(Result)) uint64 {
	return f.debounce.Trigger(func(gen uint64) {
		log.Debug().Uint64("generation", gen).Str("in", req.AssetIn).Str("out", req.AssetOut).Msg("Fetching quotes")

		quotes, err := f.Fetch(ctx, req)
		if !f.IsCurrent(gen) {
			log.Debug().Uint64("generation", gen).Msg("Discarding stale quote response")
			return
		}
		deliver(Result{Generation: gen, Quotes: quotes, Err: err})
	})
}

// Cancel drops a pending fetch and invalidates responses still in flight
func (f *Fetcher) Cancel() {
	f.debounce.Cancel()
}

// IsCurrent reports whether gen belongs to the latest scheduled fetch
func (f *Fetcher) IsCurrent(gen uint64) bool {
	return f.debounce.IsCurrent(gen)
}

// Validate checks the request before it reaches the relay
func (r Request) Validate() error {
	if r.AssetIn == "" || r.AssetOut == "" {
		return apperr.Validation("both asset identifiers are required")
	}
	if r.AssetIn == r.AssetOut {
		return apperr.Validation("cannot swap %s for itself", r.AssetIn)
	}
	amount, ok := new(big.Int).SetString(r.AmountIn, 10)
	if !ok || strings.IndexFunc(r.AmountIn, notDigit) >= 0 {
		return apperr.Validation("amount %q is not a base-unit integer", r.AmountIn)
	}
	if amount.Sign() <= 0 {
		return apperr.Validation("amount must be positive")
	}
	return nil
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}
