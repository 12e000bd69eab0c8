package display

import (
	"fmt"

	"github.com/shopspring/decimal"

	"runesdex-intents/pkg/asset"
	"runesdex-intents/pkg/types"
	"runesdex-intents/pkg/units"
)

const ratePlaces = 8

// QuoteView is a quote prepared for display
type QuoteView struct {
	QuoteID     string `json:"quote_id"`
	Solver      string `json:"solver_id"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	Rate        string `json:"rate"`
	PriceImpact string `json:"price_impact"`
	Fee         string `json:"fee,omitempty"`
	Expires     string `json:"expiration_time,omitempty"`
	SymbolIn    string `json:"symbol_in"`
	SymbolOut   string `json:"symbol_out"`
}

// NewQuoteView formats q for the from/to pair. Rate is units of "to" per unit of "from".
func NewQuoteView(q types.Quote, from, to asset.Asset) (QuoteView, error) {
	in, err := units.FromBaseUnits(q.AmountIn, from.Decimals)
	if err != nil {
		return QuoteView{}, err
	}
	out, err := units.FromBaseUnits(q.AmountOut, to.Decimals)
	if err != nil {
		return QuoteView{}, err
	}

	rate := "-"
	if !in.IsZero() {
		rate = out.DivRound(in, ratePlaces).String()
	}

	impact := q.PriceImpact
	if impact == "" {
		impact = "0"
	}

	view := QuoteView{
		QuoteID:     q.QuoteID,
		Solver:      q.SolverID,
		AmountIn:    in.StringFixed(units.DisplayPlaces),
		AmountOut:   out.StringFixed(units.DisplayPlaces),
		Rate:        rate,
		PriceImpact: impact,
		Expires:     q.ExpirationTime,
		SymbolIn:    from.Symbol,
		SymbolOut:   to.Symbol,
	}
	if q.Fee != "" {
		// Fees are charged in the input asset
		fee, err := decimal.NewFromString(q.Fee)
		if err != nil {
			return QuoteView{}, fmt.Errorf("invalid fee %q: %w", q.Fee, err)
		}
		view.Fee = fee.Shift(-from.Decimals).StringFixed(units.DisplayPlaces)
	}
	return view, nil
}

// NewQuoteViews formats every quote, keeping their order
func NewQuoteViews(quotes []types.Quote, from, to asset.Asset) ([]QuoteView, error) {
	views := make([]QuoteView, 0, len(quotes))
	for _, q := range quotes {
		v, err := NewQuoteView(q, from, to)
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", q.QuoteID, err)
		}
		views = append(views, v)
	}
	return views, nil
}
