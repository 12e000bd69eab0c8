package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/intent"
	"runesdex-intents/pkg/nonce"
	"runesdex-intents/pkg/quote"
	"runesdex-intents/pkg/relay"
	"runesdex-intents/pkg/session"
	"runesdex-intents/pkg/signing"
	"runesdex-intents/pkg/types"
	"runesdex-intents/pkg/wallet"
	mock_wallet "runesdex-intents/pkg/wallet/mock"
)

var (
	usdc = asset.Asset{ID: "usdc.near", Chain: asset.ChainNEP141, Symbol: "USDC", Decimals: 6}
	near = asset.Asset{ID: "near.near", Chain: asset.ChainNEP141, Symbol: "NEAR", Decimals: 24}
)

// manualQuotes hands quote delivery to the test
type manualQuotes struct {
	mu       sync.Mutex
	gen      uint64
	pending  map[uint64]func(quote.Result)
	requests []quote.Request
}

func newManualQuotes() *manualQuotes {
	return &manualQuotes{pending: make(map[uint64]func(quote.Result))}
}

func (m *manualQuotes) Schedule(ctx context.Context, req quote.Request, deliver func(quote.Result)) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.pending[m.gen] = deliver
	m.requests = append(m.requests, req)
	return m.gen
}

func (m *manualQuotes) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
}

func (m *manualQuotes) deliver(gen uint64, quotes []types.Quote, err error) {
	m.mu.Lock()
	fn := m.pending[gen]
	m.mu.Unlock()
	fn(quote.Result{Generation: gen, Quotes: quotes, Err: err})
}

func (m *manualQuotes) latest() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max uint64
	for gen := range m.pending {
		if gen > max {
			max = gen
		}
	}
	return max
}

type submitterFunc func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error)

func (f submitterFunc) Submit(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
	return f(ctx, quoteHash, signed)
}

type transition struct {
	from, to session.Status
}

type SessionTestSuite struct {
	suite.Suite

	ctrl        *gomock.Controller
	mockWallet  *mock_wallet.MockWallet
	quotes      *manualQuotes
	submit      submitterFunc
	transitions []transition
	tmu         sync.Mutex
	session     *session.Session

	offers []types.Quote
}

func TestRunSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockWallet = mock_wallet.NewMockWallet(s.ctrl)
	s.quotes = newManualQuotes()
	s.transitions = nil
	s.submit = func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
		return &types.PublishResult{Status: "OK"}, nil
	}
	s.offers = []types.Quote{
		{QuoteID: "q1", SolverID: "solver-1", AmountIn: "1000000", AmountOut: "250000000000000000000000", QuoteHash: "h1", PriceImpact: "0"},
		{QuoteID: "q2", SolverID: "solver-2", AmountIn: "1000000", AmountOut: "240000000000000000000000", QuoteHash: "h2", PriceImpact: "0"},
	}

	s.session = session.New(context.Background(), session.Deps{
		Quotes:  s.quotes,
		Builder: intent.NewBuilder(),
		Signer:  signing.NewAdapter(s.mockWallet),
		Submitter: submitterFunc(func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
			return s.submit(ctx, quoteHash, signed)
		}),
		Wallet:    s.mockWallet,
		Nonces:    nonce.NewGenerator(nil),
		Recipient: "intents.near",
	}, session.WithObserver(func(from, to session.Status) {
		s.tmu.Lock()
		defer s.tmu.Unlock()
		s.transitions = append(s.transitions, transition{from, to})
	}))
}

func (s *SessionTestSuite) TearDownTest() {
	s.tmu.Lock()
	defer s.tmu.Unlock()

	for i, tr := range s.transitions {
		s.False(tr.from == session.Idle && tr.to == session.Submitting, "idle jumped to submitting")
		if tr.from.Terminal() {
			s.Equal(session.Idle, tr.to, "left terminal state without passing through idle")
		}
		if i > 0 {
			s.Equal(s.transitions[i-1].to, tr.from, "transition %d does not continue from previous state", i)
		}
	}
}

func (s *SessionTestSuite) recorded() []transition {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	out := make([]transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

func (s *SessionTestSuite) quoted() {
	s.Require().NoError(s.session.SetInput(usdc, near, "1000000"))
	s.quotes.deliver(s.quotes.latest(), s.offers, nil)
	s.Require().Equal(session.Quoted, s.session.Snapshot().Status)
}

func (s *SessionTestSuite) Test_SetInput_QuotesAndSelectsFirst() {
	s.Require().NoError(s.session.SetInput(usdc, near, "1000000"))
	s.Equal(session.Quoting, s.session.Snapshot().Status)
	s.Equal("nep141:usdc.near", s.quotes.requests[0].AssetIn)
	s.Equal("1000000", s.quotes.requests[0].AmountIn)

	s.quotes.deliver(s.quotes.latest(), s.offers, nil)

	snap := s.session.Snapshot()
	s.Equal(session.Quoted, snap.Status)
	s.Len(snap.Quotes, 2)
	s.Require().NotNil(snap.Selected)
	s.Equal("q1", snap.Selected.QuoteID)
	s.Nil(snap.Err)
}

func (s *SessionTestSuite) Test_SetInput_OnlyLatestGenerationApplied() {
	s.Require().NoError(s.session.SetInput(usdc, near, "1"))
	first := s.quotes.latest()
	s.Require().NoError(s.session.SetInput(usdc, near, "12"))
	second := s.quotes.latest()
	s.Require().NoError(s.session.SetInput(usdc, near, "123"))
	third := s.quotes.latest()

	s.quotes.deliver(second, []types.Quote{{QuoteID: "stale-2"}}, nil)
	s.quotes.deliver(first, []types.Quote{{QuoteID: "stale-1"}}, nil)
	s.Equal(session.Quoting, s.session.Snapshot().Status)

	s.quotes.deliver(third, []types.Quote{{QuoteID: "fresh"}}, nil)
	s.quotes.deliver(second, []types.Quote{{QuoteID: "stale-2"}}, nil)

	snap := s.session.Snapshot()
	s.Equal(session.Quoted, snap.Status)
	s.Require().Len(snap.Quotes, 1)
	s.Equal("fresh", snap.Quotes[0].QuoteID)

	quotedCount := 0
	for _, tr := range s.recorded() {
		if tr.to == session.Quoted {
			quotedCount++
		}
	}
	s.Equal(1, quotedCount)
}

func (s *SessionTestSuite) Test_SetInput_InvalidStaysIdle() {
	err := s.session.SetInput(usdc, usdc, "1000000")
	s.True(errors.Is(err, apperr.ErrValidation))
	s.Equal(session.Idle, s.session.Snapshot().Status)

	err = s.session.SetInput(usdc, near, "0")
	s.True(errors.Is(err, apperr.ErrValidation))
	s.Equal(session.Idle, s.session.Snapshot().Status)
	s.Nil(s.session.Snapshot().Input)
	s.Empty(s.quotes.requests)
}

func (s *SessionTestSuite) Test_QuoteError_QuotedWithEmptyList() {
	s.Require().NoError(s.session.SetInput(usdc, near, "1000000"))
	s.quotes.deliver(s.quotes.latest(), []types.Quote{}, apperr.QuoteFetch("no solvers available", nil))

	snap := s.session.Snapshot()
	s.Equal(session.Quoted, snap.Status)
	s.Empty(snap.Quotes)
	s.Nil(snap.Selected)
	s.True(errors.Is(snap.Err, apperr.ErrQuoteFetch))

	s.True(errors.Is(s.session.Confirm(context.Background()), apperr.ErrValidation))
	s.Equal(session.Quoted, s.session.Snapshot().Status)
}

func (s *SessionTestSuite) Test_Confirm_Succeeds() {
	s.quoted()

	var signedPayload []byte
	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), "intents.near").DoAndReturn(
		func(ctx context.Context, message []byte, recipient string) (*wallet.Signature, error) {
			signedPayload = message
			return &wallet.Signature{Signature: "sig", PublicKey: "pub"}, nil
		})

	var submitted *types.SignedData
	var submittedHash string
	s.submit = func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
		submitted, submittedHash = signed, quoteHash
		return &types.PublishResult{Status: "OK", IntentHash: "ih1"}, nil
	}

	s.Require().NoError(s.session.Confirm(context.Background()))

	snap := s.session.Snapshot()
	s.Equal(session.Succeeded, snap.Status)
	s.NotEmpty(snap.Attempt)
	s.Require().NotNil(snap.Result)
	s.Empty(snap.Result.TransactionHashes)
	s.Equal("ih1", snap.Result.IntentHash)

	s.Equal("h1", submittedHash)
	s.Require().NotNil(submitted)
	s.Equal("ed25519:sig", submitted.Signature)
	s.Equal("ed25519:pub", submitted.PublicKey)
	s.Equal("alice.near", submitted.Message.SignerID)
	in, _ := submitted.Message.Intents[0].Diff.Get("nep141:usdc.near")
	s.Equal("-1000000", in)
	s.Contains(string(signedPayload), ":intents.near:"+submitted.Nonce)

	s.Equal([]transition{
		{session.Idle, session.Quoting},
		{session.Quoting, session.Quoted},
		{session.Quoted, session.AwaitingSignature},
		{session.AwaitingSignature, session.Submitting},
		{session.Submitting, session.Succeeded},
	}, s.recorded())
}

func (s *SessionTestSuite) Test_Confirm_UsesSelectedQuote() {
	s.quoted()
	s.Require().NoError(s.session.Select("q2"))
	s.True(errors.Is(s.session.Select("missing"), apperr.ErrValidation))

	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(&wallet.Signature{Signature: "s", PublicKey: "p"}, nil)
	var hash string
	s.submit = func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
		hash = quoteHash
		return &types.PublishResult{Status: "OK"}, nil
	}

	s.Require().NoError(s.session.Confirm(context.Background()))
	s.Equal("h2", hash)
}

func (s *SessionTestSuite) Test_Confirm_WithoutIdentityRequestsConnection() {
	s.quoted()
	s.mockWallet.EXPECT().AccountID().Return("")
	s.mockWallet.EXPECT().Connect(gomock.Any()).Return(nil)

	err := s.session.Confirm(context.Background())

	s.ErrorIs(err, session.ErrWalletNotConnected)
	s.Equal(session.Quoted, s.session.Snapshot().Status)
}

func (s *SessionTestSuite) Test_Confirm_SigningRejected() {
	s.quoted()
	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, wallet.ErrRejected)
	s.submit = func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
		s.Fail("rejected intent must not be submitted")
		return nil, nil
	}

	err := s.session.Confirm(context.Background())

	s.True(errors.Is(err, apperr.ErrSigningFailed))
	snap := s.session.Snapshot()
	s.Equal(session.Failed, snap.Status)
	s.True(errors.Is(snap.Err, apperr.ErrSigningFailed))
}

func (s *SessionTestSuite) Test_Confirm_SubmissionRejected() {
	s.quoted()
	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(&wallet.Signature{Signature: "s", PublicKey: "p"}, nil)
	s.submit = func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
		return &types.PublishResult{Status: "FAILED", Reason: "quote expired"}, apperr.Submission("relay answered FAILED: quote expired")
	}

	err := s.session.Confirm(context.Background())

	s.True(errors.Is(err, apperr.ErrSubmission))
	snap := s.session.Snapshot()
	s.Equal(session.Failed, snap.Status)
	s.Require().NotNil(snap.Result)
	s.Equal("quote expired", snap.Result.Reason)
}

func (s *SessionTestSuite) Test_Reset_DiscardsPendingSignature() {
	s.quoted()
	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	signStarted := make(chan struct{})
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, message []byte, recipient string) (*wallet.Signature, error) {
			close(signStarted)
			<-ctx.Done()
			return &wallet.Signature{Signature: "late", PublicKey: "p"}, nil
		})
	s.submit = func(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
		s.Fail("stale signature must not be submitted")
		return nil, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.session.Confirm(context.Background()) }()

	<-signStarted
	s.Equal(session.AwaitingSignature, s.session.Snapshot().Status)
	s.ErrorIs(s.session.Confirm(context.Background()), session.ErrAttemptInProgress)

	s.session.Reset()

	select {
	case err := <-done:
		s.ErrorIs(err, session.ErrStaleSession)
	case <-time.After(time.Second):
		s.FailNow("confirm did not return after reset")
	}
	snap := s.session.Snapshot()
	s.Equal(session.Idle, snap.Status)
	s.Nil(snap.Err)
}

func (s *SessionTestSuite) Test_InputChangeDuringSignature() {
	s.quoted()
	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	signStarted := make(chan struct{})
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, message []byte, recipient string) (*wallet.Signature, error) {
			close(signStarted)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	done := make(chan error, 1)
	go func() { done <- s.session.Confirm(context.Background()) }()
	<-signStarted

	s.Require().NoError(s.session.SetInput(usdc, near, "2000000"))

	s.ErrorIs(<-done, session.ErrStaleSession)
	snap := s.session.Snapshot()
	s.Equal(session.Quoting, snap.Status)
	s.Equal("2000000", snap.Input.AmountIn)
}

func (s *SessionTestSuite) Test_Acknowledge_Requotes() {
	s.quoted()
	s.ErrorIs(s.session.Acknowledge(), session.ErrNotTerminal)

	s.mockWallet.EXPECT().AccountID().Return("alice.near").AnyTimes()
	s.mockWallet.EXPECT().SignMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(&wallet.Signature{Signature: "s", PublicKey: "p"}, nil)
	s.Require().NoError(s.session.Confirm(context.Background()))

	s.Require().NoError(s.session.Acknowledge())

	snap := s.session.Snapshot()
	s.Equal(session.Quoting, snap.Status)
	s.Nil(snap.Result)
	s.Len(s.quotes.requests, 2)
	s.Equal(s.quotes.requests[0], s.quotes.requests[1])
}

func (s *SessionTestSuite) Test_Await() {
	s.Require().NoError(s.session.SetInput(usdc, near, "1000000"))

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.quotes.deliver(s.quotes.latest(), s.offers, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, err := s.session.Await(ctx, func(snap session.Snapshot) bool { return snap.Status == session.Quoted })

	s.Require().NoError(err)
	s.Len(snap.Quotes, 2)

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	_, err = s.session.Await(short, func(snap session.Snapshot) bool { return snap.Status == session.Succeeded })
	s.ErrorIs(err, context.DeadlineExceeded)
}

func TestSession_RelayWithoutSolvers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID uint64 `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"message": "no solvers available"},
		})
	}))
	defer server.Close()

	ctrl := gomock.NewController(t)
	w := mock_wallet.NewMockWallet(ctrl)
	client := relay.NewClient(server.URL)

	sess := session.New(context.Background(), session.Deps{
		Quotes:    quote.NewFetcher(client, quote.WithQuietWindow(10*time.Millisecond)),
		Builder:   intent.NewBuilder(),
		Signer:    signing.NewAdapter(w),
		Wallet:    w,
		Nonces:    nonce.NewGenerator(nil),
		Recipient: "intents.near",
	})
	defer sess.Close()

	require.NoError(t, sess.SetInput(usdc, near, "1000000"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := sess.Await(ctx, func(snap session.Snapshot) bool { return snap.Status != session.Quoting })

	require.NoError(t, err)
	assert.Equal(t, session.Quoted, snap.Status)
	assert.NotNil(t, snap.Quotes)
	assert.Empty(t, snap.Quotes)
	assert.True(t, errors.Is(snap.Err, apperr.ErrQuoteFetch))
	assert.Contains(t, snap.Err.Error(), "no solvers available")
}

func TestStatus_Strings(t *testing.T) {
	assert.Equal(t, "awaiting_signature", session.AwaitingSignature.String())
	assert.Equal(t, "unknown", session.Status(99).String())
	assert.True(t, session.Failed.Terminal())
	assert.False(t, session.Quoted.Terminal())
}
