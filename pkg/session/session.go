package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/quote"
	"runesdex-intents/pkg/types"
	"runesdex-intents/pkg/wallet"
)

var (
	ErrAttemptInProgress  = errors.New("a swap attempt is already in progress")
	ErrWalletNotConnected = errors.New("wallet not connected, connection requested")
	ErrStaleSession       = errors.New("session changed while the swap attempt was running")
	ErrNotQuoted          = errors.New("no quotes to confirm")
	ErrNotTerminal        = errors.New("no finished swap attempt to acknowledge")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

type QuoteScheduler interface {
	Schedule(ctx context.Context, req quote.Request, deliver func(quote.Result)) uint64
	Cancel()
}

type IntentBuilder interface {
	Build(signerID string, q types.Quote, assetIn, assetOut asset.Asset) (*types.Message, error)
}

type Signer interface {
	Sign(ctx context.Context, msg *types.Message, recipient, nonce string) (*types.SignedData, error)
}

type Submitter interface {
	Submit(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error)
}

type NonceSource interface {
	Generate() (string, error)
}

// Deps are the collaborators a session coordinates
type Deps struct {
	Quotes        QuoteScheduler
	Builder       IntentBuilder
	Signer        Signer
	Submitter     Submitter
	Wallet        wallet.Wallet
	Nonces        NonceSource
	Recipient     string
	MinDeadlineMs int64
}

// Observer is told about every status change, with the session locked.
// It must not call back into the session.
type Observer func(from, to Status)

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// Input is the asset pair and base-unit amount being quoted
type Input struct {
	AssetIn  asset.Asset
	AssetOut asset.Asset
	AmountIn string
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	Status   Status
	Input    *Input
	Quotes   []types.Quote
	Selected *types.Quote
	Err      error
	Result   *types.PublishResult
	Attempt  string
}

// Session drives one user's swap from input to settlement submission
type Session struct {
	ctx       context.Context
	deps      Deps
	observers []Observer

	mu            sync.Mutex
	status        Status
	input         *Input
	quotes        []types.Quote
	selected      int
	err           error
	result        *types.PublishResult
	attempt       string
	epoch         uint64
	fetchGen      uint64
	cancelAttempt context.CancelFunc
	changed       chan struct{}
}

// New creates an idle session. ctx bounds background quote fetches.
func New(ctx context.Context, deps Deps, opts ...Option) *Session {
	s := &Session{
		ctx:      ctx,
		deps:     deps,
		status:   Idle,
		selected: -1,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetInput replaces the asset pair and amount. Whatever the session was
// doing is abandoned and a debounced quote fetch is scheduled. Invalid input
// leaves the session Idle.
func (s *Session) SetInput(assetIn, assetOut asset.Asset, amountIn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.input = nil

	if assetIn.Identifier() == assetOut.Identifier() {
		s.notifyLocked()
		return apperr.Validation("cannot swap %s for itself", assetIn.Symbol)
	}
	req := quote.Request{
		AssetIn:       assetIn.Identifier(),
		AssetOut:      assetOut.Identifier(),
		AmountIn:      amountIn,
		MinDeadlineMs: s.deps.MinDeadlineMs,
	}
	if err := req.Validate(); err != nil {
		s.notifyLocked()
		return err
	}

	s.input = &Input{AssetIn: assetIn, AssetOut: assetOut, AmountIn: amountIn}
	return s.scheduleLocked()
}

// Select picks a quote other than the default first one
func (s *Session) Select(quoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Quoted {
		return ErrNotQuoted
	}
	for i, q := range s.quotes {
		if q.QuoteID == quoteID {
			s.selected = i
			s.notifyLocked()
			return nil
		}
	}
	return apperr.Validation("unknown quote %s", quoteID)
}

// Confirm runs a swap attempt with the selected quote and blocks until it
// ends. Without a connected wallet identity a connection is requested and
// the session stays Quoted.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()

	switch {
	case s.status.InFlight():
		s.mu.Unlock()
		return ErrAttemptInProgress
	case s.status != Quoted:
		s.mu.Unlock()
		return ErrNotQuoted
	case s.selected < 0:
		s.mu.Unlock()
		return apperr.Validation("no quote selected")
	}

	account := s.deps.Wallet.AccountID()
	if account == "" {
		s.mu.Unlock()
		if err := s.deps.Wallet.Connect(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrWalletNotConnected, err)
		}
		return ErrWalletNotConnected
	}

	q := s.quotes[s.selected]
	input := *s.input
	epoch := s.epoch
	signCtx, cancel := context.WithCancel(ctx)
	s.cancelAttempt = cancel
	s.attempt = uuid.NewString()
	s.err = nil
	s.result = nil
	if err := s.transitionLocked(AwaitingSignature); err != nil {
		cancel()
		s.mu.Unlock()
		return err
	}
	attempt := s.attempt
	s.mu.Unlock()

	logger := log.With().Str("attempt", attempt).Str("quote", q.QuoteID).Logger()
	logger.Info().Str("solver", q.SolverID).Msg("Starting swap attempt")

	signed, err := s.sign(signCtx, account, q, input)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		cancel()
		logger.Debug().Msg("Discarding signature for reset session")
		return ErrStaleSession
	}
	if err != nil {
		s.finishLocked(Failed, err, nil)
		s.mu.Unlock()
		logger.Warn().Err(err).Msg("Signing failed")
		return err
	}
	if err := s.transitionLocked(Submitting); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	result, err := s.deps.Submitter.Submit(ctx, q.QuoteHash, signed)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		logger.Debug().Msg("Discarding submission result for reset session")
		return ErrStaleSession
	}
	if err != nil {
		s.finishLocked(Failed, err, result)
		logger.Warn().Err(err).Msg("Submission failed")
		return err
	}
	s.finishLocked(Succeeded, nil, result)
	logger.Info().Str("intentHash", result.IntentHash).Msg("Intent accepted by relay")
	return nil
}

func (s *Session) sign(ctx context.Context, account string, q types.Quote, input Input) (*types.SignedData, error) {
	nonce, err := s.deps.Nonces.Generate()
	if err != nil {
		return nil, apperr.SigningFailed(err)
	}
	msg, err := s.deps.Builder.Build(account, q, input.AssetIn, input.AssetOut)
	if err != nil {
		return nil, err
	}
	return s.deps.Signer.Sign(ctx, msg, s.deps.Recipient, nonce)
}

// Acknowledge dismisses a finished attempt and re-quotes the same input
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.status.Terminal() {
		return ErrNotTerminal
	}
	s.resetLocked()
	if s.input == nil {
		s.notifyLocked()
		return nil
	}
	return s.scheduleLocked()
}

// Reset returns to Idle and forgets the input. A pending signature request is cancelled.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.input = nil
	s.notifyLocked()
}

// Close stops background work
func (s *Session) Close() {
	s.Reset()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Await blocks until pred holds for the session state or ctx is done
func (s *Session) Await(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	for {
		s.mu.Lock()
		snap := s.snapshotLocked()
		changed := s.changed
		s.mu.Unlock()

		if pred(snap) {
			return snap, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (s *Session) scheduleLocked() error {
	if err := s.transitionLocked(Quoting); err != nil {
		return err
	}
	epoch := s.epoch
	req := quote.Request{
		AssetIn:       s.input.AssetIn.Identifier(),
		AssetOut:      s.input.AssetOut.Identifier(),
		AmountIn:      s.input.AmountIn,
		MinDeadlineMs: s.deps.MinDeadlineMs,
	}
	s.fetchGen = s.deps.Quotes.Schedule(s.ctx, req, func(r quote.Result) {
		s.deliverQuotes(epoch, r)
	})
	return nil
}

func (s *Session) deliverQuotes(epoch uint64, r quote.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || r.Generation != s.fetchGen || s.status != Quoting {
		log.Debug().Uint64("generation", r.Generation).Msg("Ignoring superseded quotes")
		return
	}

	s.quotes = r.Quotes
	s.err = r.Err
	s.selected = -1
	if len(s.quotes) > 0 {
		s.selected = 0
	}
	if r.Err != nil {
		log.Warn().Err(r.Err).Uint64("generation", r.Generation).Msg("Quote fetch failed")
	}
	_ = s.transitionLocked(Quoted)
}

// resetLocked abandons all work and returns to Idle, keeping the input
func (s *Session) resetLocked() {
	s.deps.Quotes.Cancel()
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
	s.epoch++
	s.fetchGen = 0
	s.quotes = nil
	s.selected = -1
	s.err = nil
	s.result = nil
	s.attempt = ""
	if s.status != Idle {
		_ = s.transitionLocked(Idle)
	}
}

func (s *Session) finishLocked(to Status, err error, result *types.PublishResult) {
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
	s.err = err
	s.result = result
	_ = s.transitionLocked(to)
}

func (s *Session) transitionLocked(to Status) error {
	from := s.status
	if !canTransition(from, to) {
		log.Error().Str("from", from.String()).Str("to", to.String()).Msg("Rejected status transition")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.status = to
	log.Debug().Str("from", from.String()).Str("status", to.String()).Msg("Session status changed")
	for _, o := range s.observers {
		o(from, to)
	}
	s.notifyLocked()
	return nil
}

func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:  s.status,
		Err:     s.err,
		Attempt: s.attempt,
	}
	if s.input != nil {
		in := *s.input
		snap.Input = &in
	}
	if s.quotes != nil {
		snap.Quotes = make([]types.Quote, len(s.quotes))
		copy(snap.Quotes, s.quotes)
	}
	if s.selected >= 0 && s.selected < len(s.quotes) {
		q := s.quotes[s.selected]
		snap.Selected = &q
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
