// Package valuation merges held positions with live prices. Pure functions,
// recomputed over the full position set on every price or position change so
// profit and gains stay consistent with quantity and cost basis.
package valuation

import "PaperDeck/internal/domain/models"

// Enrich joins one position with a live price. When the price map has no entry
// for the ticker, the previously known current price is carried over instead
// of collapsing to zero.
func Enrich(p models.Position, prices map[string]float64, prev *models.EnrichedPosition) models.EnrichedPosition {
	current, ok := prices[p.Ticker]
	if !ok && prev != nil {
		current = prev.CurrentPrice
	}
	e := models.EnrichedPosition{
		Position:     p,
		CurrentPrice: current,
		Profit:       p.Qty * (current - p.AvgCost),
	}
	if basis := p.Qty * p.AvgCost; basis != 0 {
		gains := e.Profit / basis * 100
		e.Gains = &gains
	}
	return e
}

// EnrichAll recomputes the full enriched set. previous supplies carried-over
// prices for tickers absent from the live price map.
func EnrichAll(positions []models.Position, prices map[string]float64, previous []models.EnrichedPosition) []models.EnrichedPosition {
	prevByTicker := make(map[string]*models.EnrichedPosition, len(previous))
	for i := range previous {
		prevByTicker[previous[i].Ticker] = &previous[i]
	}
	out := make([]models.EnrichedPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, Enrich(p, prices, prevByTicker[p.Ticker]))
	}
	return out
}
