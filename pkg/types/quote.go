package types

import (
	"bytes"
	"encoding/json"
)

// QuoteRequest is the single param of the relay "quote" method
type QuoteRequest struct {
	AssetIn        string `json:"defuse_asset_identifier_in"`
	AssetOut       string `json:"defuse_asset_identifier_out"`
	ExactAmountIn  string `json:"exact_amount_in,omitempty"`
	ExactAmountOut string `json:"exact_amount_out,omitempty"`
	MinDeadlineMs  int64  `json:"min_deadline_ms,omitempty"`
}

// Quote is a solver's offer. Amounts are base-unit decimal strings.
type Quote struct {
	QuoteID        string `json:"quote_id"`
	SolverID       string `json:"solver_id"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	Fee            string `json:"fee,omitempty"`
	PriceImpact    string `json:"price_impact"`
	QuoteHash      string `json:"quote_hash"`
	ExpirationTime string `json:"expiration_time,omitempty"`
}

// QuoteResponse is the result of the "quote" method
type QuoteResponse struct {
	Quotes []Quote `json:"quotes"`
}

// UnmarshalJSON accepts {"quotes": [...]}, a bare array of quotes, or null.
func (r *QuoteResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	r.Quotes = nil

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		r.Quotes = []Quote{}
		return nil
	case data[0] == '[':
		if err := json.Unmarshal(data, &r.Quotes); err != nil {
			return err
		}
	default:
		var wrapped struct {
			Quotes []Quote `json:"quotes"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		r.Quotes = wrapped.Quotes
	}

	if r.Quotes == nil {
		r.Quotes = []Quote{}
	}
	for i := range r.Quotes {
		if r.Quotes[i].PriceImpact == "" {
			r.Quotes[i].PriceImpact = "0"
		}
	}
	return nil
}
