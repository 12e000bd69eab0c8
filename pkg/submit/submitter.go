package submit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"runesdex-intents/pkg/apperr"
	"runesdex-intents/pkg/relay"
	"runesdex-intents/pkg/types"
)

// StatusOK is the only publish status treated as accepted
const StatusOK = "OK"

// Relay is the subset of the relay client used for submission
type Relay interface {
	PublishIntent(ctx context.Context, req types.PublishIntentRequest) (relay.Result[types.PublishResult], error)
}

// Submitter publishes signed intents. It never retries.
type Submitter struct {
	relay Relay
}

func NewSubmitter(r Relay) *Submitter {
	return &Submitter{relay: r}
}

// Submit publishes signed against quoteHash. A non-OK status is returned
// together with a submission error so callers can show the relay's reason.
func (s *Submitter) Submit(ctx context.Context, quoteHash string, signed *types.SignedData) (*types.PublishResult, error) {
	if quoteHash == "" {
		return nil, apperr.Validation("quote hash is required")
	}
	if signed == nil {
		return nil, apperr.Validation("signed intent is required")
	}

	res, err := s.relay.PublishIntent(ctx, types.PublishIntentRequest{
		QuoteHashes: []string{quoteHash},
		SignedData:  signed,
	})
	if err != nil {
		return nil, err
	}
	if rpcErr := res.Err(); rpcErr != nil {
		return nil, apperr.Submission(rpcErr.Message)
	}

	result, _ := res.Value()
	log.Debug().Str("status", result.Status).Str("intentHash", result.IntentHash).Msg("Intent published")

	if result.Status != StatusOK {
		msg := fmt.Sprintf("relay answered %s", result.Status)
		if result.Reason != "" {
			msg += ": " + result.Reason
		}
		return &result, apperr.Submission(msg)
	}
	return &result, nil
}
