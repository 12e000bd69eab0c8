package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/types"
)

const (
	DefaultURL     = "https://solver-relay-v2.chaindefuser.com/rpc"
	DefaultTimeout = 30 * time.Second

	MethodQuote         = "quote"
	MethodPublishIntent = "publish_intent"
	MethodGetStatus     = "get_status"
)

// Client talks JSON-RPC 2.0 to the solver relay
type Client struct {
	url       string
	http      *http.Client
	limiter   *rate.Limiter
	requestID atomic.Uint64
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a relay client for url, or DefaultURL when url is empty
func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:  url,
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the relay
type RPCError struct {
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("relay error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("relay error: %s", e.Message)
}

// Result holds either a decoded relay result or the relay's error object.
type Result[T any] struct {
	value T
	err   *RPCError
}

// Value returns the decoded result and true when the relay did not answer with an error
func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Err returns the relay error object, or nil
func (r Result[T]) Err() *RPCError {
	return r.err
}

func (r Result[T]) OK() bool {
	return r.err == nil
}

// Success wraps a decoded result.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure wraps a relay error object.
func Failure[T any](err *RPCError) Result[T] {
	return Result[T]{err: err}
}

// Quote calls the relay "quote" method
func (c *Client) Quote(ctx context.Context, req types.QuoteRequest) (Result[types.QuoteResponse], error) {
	return invoke[types.QuoteResponse](ctx, c, MethodQuote, req)
}

// PublishIntent calls the relay "publish_intent" method
func (c *Client) PublishIntent(ctx context.Context, req types.PublishIntentRequest) (Result[types.PublishResult], error) {
	return invoke[types.PublishResult](ctx, c, MethodPublishIntent, req)
}

// GetStatus calls the relay "get_status" method for a published intent
func (c *Client) GetStatus(ctx context.Context, intentHash string) (Result[types.IntentStatus], error) {
	params := struct {
		IntentHash string `json:"intent_hash"`
	}{IntentHash: intentHash}
	return invoke[types.IntentStatus](ctx, c, MethodGetStatus, params)
}

// invoke performs one call. The returned error is always a transport error;
// relay error objects are carried in the Result.
func invoke[T any](ctx context.Context, c *Client, method string, param interface{}) (Result[T], error) {
	var res Result[T]

	raw, rpcErr, err := c.call(ctx, method, param)
	if err != nil {
		return res, err
	}
	if rpcErr != nil {
		res.err = rpcErr
		return res, nil
	}

	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, &res.value); err != nil {
		return res, apperr.Transport(fmt.Sprintf("decode %s result", method), err)
	}
	return res, nil
}

func (c *Client) call(ctx context.Context, method string, param interface{}) (json.RawMessage, *RPCError, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, apperr.Transport("rate limiter", err)
		}
	}

	reqID := c.requestID.Add(1)
	body, err := encodeRequest(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  []interface{}{param},
	})
	if err != nil {
		return nil, nil, apperr.Transport("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, apperr.Transport("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("method", method).Uint64("id", reqID).Msg("Sending relay request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, apperr.Transport("http request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, apperr.Transport("read response", err)
	}

	var rpcResp rpcResponse
	decodeErr := json.Unmarshal(respBody, &rpcResp)
	if decodeErr == nil && rpcResp.Error != nil {
		log.Debug().Str("method", method).Uint64("id", reqID).Msgf("Relay returned error: %s", rpcResp.Error.Message)
		return nil, rpcResp.Error, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, apperr.Transport(fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 256)), nil)
	}
	if decodeErr != nil {
		return nil, nil, apperr.Transport("unmarshal response", decodeErr)
	}

	return rpcResp.Result, nil, nil
}

// encodeRequest writes the request without HTML escaping so a published
// message is sent byte for byte as it was signed.
func encodeRequest(req rpcRequest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
